package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"go.uber.org/zap"
)

// WithdrawRequest is the validated controller-layer input to Withdraw.
type WithdrawRequest struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	BankCode      string `json:"bank_code"`
}

// Withdraw moves funds out to a bank account. The amount is reserved
// (debited) before the transfer is attempted; a failed or errored transfer
// compensates the reservation, so the wallet's net change is -amount exactly
// when the payment ends in success and zero when it ends in failed.
func (e *Engine) Withdraw(ctx context.Context, userId string, req WithdrawRequest) (*models.WithdrawResult, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	reference := GenerateReference()
	metadata, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot request: %w", err)
	}

	payment, err := e.store.ReserveWithdrawal(ctx, store.ReserveParams{
		UserId:        userId,
		Amount:        amount,
		Currency:      currency,
		TransactionId: reference,
		Metadata:      string(metadata),
	})
	if err != nil {
		return nil, err
	}

	transferResp, err := e.gateway.Transfer(ctx, &models.TransferRequest{
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		Amount:        amount.String(),
		Currency:      currency,
		Reference:     reference,
		BankCode:      req.BankCode,
	})
	if err != nil {
		e.compensate(ctx, reference, models.PaymentTypeWithdraw)
		return nil, err
	}

	if _, err := e.store.FinalizeWithdrawal(ctx, reference); err != nil {
		return nil, fmt.Errorf("transfer succeeded but finalization failed: %w", err)
	}
	payment.Status = models.PaymentStatusSuccess

	zap.L().Info("Withdrawal completed",
		zap.String("transaction_id", reference),
		zap.String("user_id", userId),
		zap.String("amount", amount.String()))

	return &models.WithdrawResult{Payment: payment, Gateway: transferResp}, nil
}

// compensate rolls back an outbound reservation after a failed transfer.
// A compensation failure is logged and surfaced separately; it must never
// mask the original transfer error being handled.
func (e *Engine) compensate(ctx context.Context, reference, paymentType string) {
	var err error
	if paymentType == models.PaymentTypeRefund {
		_, err = e.store.CompensateRefund(ctx, reference)
	} else {
		_, err = e.store.CompensateWithdrawal(ctx, reference)
	}
	if err != nil {
		zap.L().Error("Compensation failed, manual reconciliation required",
			zap.String("transaction_id", reference),
			zap.String("type", paymentType),
			zap.Error(err))
	}
}

// ApprovePayment force-transitions a pending withdrawal to success without
// further gateway interaction: the manual reconciliation path for
// out-of-band-confirmed transfers.
func (e *Engine) ApprovePayment(ctx context.Context, reference string) (*models.ApprovalResult, error) {
	if reference == "" {
		return nil, ErrMissingReference
	}
	if err := e.store.ApprovePendingWithdrawal(ctx, reference); err != nil {
		return nil, err
	}
	return &models.ApprovalResult{Approved: true}, nil
}
