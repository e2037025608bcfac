package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"go.uber.org/zap"
)

// RefundRequest is the validated controller-layer input to Refund.
type RefundRequest struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
}

// Refund transfers a creator's excess balance back to their bank account.
// The refundable amount is the balance minus the rewards still committed to
// the creator's live surveys. Unlike withdraw, a refund requires the
// two-step transfer-then-verify protocol; failure of either step compensates
// the optimistic debit.
func (e *Engine) Refund(ctx context.Context, userId string, req RefundRequest) (*models.RefundResult, error) {
	wallet, err := e.store.GetWalletByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}

	obligations, err := e.store.LiveSurveyObligations(ctx, userId)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(obligations) {
		return nil, ErrObligationsExceedBalance
	}

	refundable := wallet.Balance.Sub(obligations)
	if refundable.Sign() <= 0 {
		return nil, ErrNoRefundable
	}

	reference := GenerateReference()
	metadata, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot request: %w", err)
	}

	if _, err := e.store.ReserveRefund(ctx, store.ReserveParams{
		UserId:        userId,
		Amount:        refundable,
		Currency:      defaultCurrency,
		TransactionId: reference,
		Metadata:      string(metadata),
	}); err != nil {
		return nil, err
	}

	zap.L().Info("Refund reserved",
		zap.String("transaction_id", reference),
		zap.String("user_id", userId),
		zap.String("obligations", obligations.String()),
		zap.String("refundable", refundable.String()))

	if _, err := e.gateway.Transfer(ctx, &models.TransferRequest{
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		Amount:        refundable.String(),
		Currency:      defaultCurrency,
		Reference:     reference,
		BankCode:      req.BankCode,
	}); err != nil {
		e.compensate(ctx, reference, models.PaymentTypeRefund)
		return nil, err
	}

	verifyResp, err := e.gateway.VerifyTransfer(ctx, reference)
	if err != nil {
		e.compensate(ctx, reference, models.PaymentTypeRefund)
		return nil, err
	}
	if verifyResp.Status != "success" {
		e.compensate(ctx, reference, models.PaymentTypeRefund)
		return nil, fmt.Errorf("refund transfer verification failed: %s", verifyResp.Message)
	}

	if _, err := e.store.FinalizeRefund(ctx, reference); err != nil {
		return nil, fmt.Errorf("transfer succeeded but finalization failed: %w", err)
	}

	zap.L().Info("Refund completed",
		zap.String("transaction_id", reference),
		zap.String("user_id", userId),
		zap.String("amount", refundable.String()))

	return &models.RefundResult{
		Message: fmt.Sprintf("Refund successful: %s %s refunded", refundable.String(), defaultCurrency),
	}, nil
}
