package settlement

import (
	"context"
	"fmt"
	"net/http"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"go.uber.org/zap"
)

// HandleCallback reconciles a provider redirect. The redirect payload's own
// status claim is never trusted: the transaction is independently re-verified
// with the provider first. Any verification error, transport failure and
// provider error response alike, mutates nothing and is returned so the
// caller or reconciler can retry; the payment stays pending. Only a decoded
// verify body carrying a non-success status marks the payment failed.
func (e *Engine) HandleCallback(ctx context.Context, reference string) (*models.CallbackResult, error) {
	if reference == "" {
		return nil, ErrMissingReference
	}

	verify, err := e.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		zap.L().Warn("Transaction verification failed, leaving payment pending",
			zap.String("transaction_id", reference),
			zap.Error(err))
		return nil, fmt.Errorf("verification error: %w", err)
	}

	if verify.Status == "success" && verify.Data.Status == "success" {
		outcome, err := e.store.SettleFundSuccess(ctx, reference)
		if err != nil {
			return nil, err
		}
		switch outcome {
		case store.SettleNotFound:
			return &models.CallbackResult{
				Success: false,
				Message: "Payment not found for reference",
				Status:  http.StatusNotFound,
			}, nil
		case store.SettleAlreadyFinal:
			return &models.CallbackResult{Success: true, Message: "Payment already settled."}, nil
		default:
			return &models.CallbackResult{Success: true, Message: "Payment successful and wallet updated."}, nil
		}
	}

	return e.settleFailed(ctx, reference)
}

func (e *Engine) settleFailed(ctx context.Context, reference string) (*models.CallbackResult, error) {
	count, err := e.store.FailPendingPayments(ctx, reference)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Payment marked failed after verification",
		zap.String("transaction_id", reference),
		zap.Int64("rows", count))
	return &models.CallbackResult{Success: false, Message: "Payment failed."}, nil
}
