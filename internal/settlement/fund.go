package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultCurrency = "ETB"

// FundRequest is the validated controller-layer input to Fund.
type FundRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	PhoneNumber string `json:"phone_number"`
}

// Fund creates a pending fund payment and initializes a hosted-checkout
// transaction with the provider. The provider's checkout response is
// returned unmodified. On gateway failure the pending payment row is
// retained: the payer may still complete payment through the checkout page,
// and reconciliation happens later via callback or webhook.
func (e *Engine) Fund(ctx context.Context, userId string, req FundRequest) (*models.FundResult, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	user, err := e.store.GetUserById(ctx, userId)
	if err != nil {
		return nil, err
	}

	reference := GenerateReference()
	metadata, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot request: %w", err)
	}

	payment, err := e.store.CreatePayment(ctx, store.CreatePaymentParams{
		UserId:        userId,
		Type:          models.PaymentTypeFund,
		Amount:        amount,
		Currency:      currency,
		TransactionId: reference,
		Metadata:      string(metadata),
	})
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitName(user.Name)
	initResp, err := e.gateway.InitializeTransaction(ctx, &models.InitializeRequest{
		Amount:      amount.String(),
		Currency:    currency,
		Email:       user.Email,
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: req.PhoneNumber,
		TxRef:       reference,
		CallbackURL: e.cfg.CallbackURL,
		ReturnURL:   e.cfg.ReturnURL,
	})
	if err != nil {
		zap.L().Error("Transaction initialization failed",
			zap.String("transaction_id", reference),
			zap.String("user_id", userId),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("Funding initialized",
		zap.String("transaction_id", reference),
		zap.String("user_id", userId),
		zap.String("amount", amount.String()))

	return &models.FundResult{
		CheckoutURL: initResp.Data.CheckoutURL,
		Payment:     payment,
	}, nil
}

// parseAmount normalizes and validates a monetary input: it must be a
// finite decimal strictly greater than zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}
	return amount, nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "Unknown", "User"
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
