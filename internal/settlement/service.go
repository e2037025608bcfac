package settlement

import (
	"context"
	"errors"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"
)

// Operation errors surfaced to controller-layer collaborators.
var (
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrMissingReference         = errors.New("missing transaction reference")
	ErrBadSignature             = errors.New("invalid webhook signature")
	ErrNoRefundable             = errors.New("no refundable amount available")
	ErrObligationsExceedBalance = errors.New("insufficient wallet balance: live survey rewards exceed current balance")
)

// Gateway is the payment provider surface the engine depends on.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req *models.InitializeRequest) (*models.InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*models.VerifyResponse, error)
	Transfer(ctx context.Context, req *models.TransferRequest) (*models.TransferResponse, error)
	VerifyTransfer(ctx context.Context, reference string) (*models.TransferResponse, error)
	ListBanks(ctx context.Context) (*models.BanksResponse, error)
}

// Engine orchestrates fund, withdraw, refund, callback and webhook flows
// against the ledger store and the payment provider.
type Engine struct {
	store   store.LedgerStore
	gateway Gateway
	cfg     models.GatewayConfig
	webhook models.WebhookConfig
}

func NewEngine(ledger store.LedgerStore, gw Gateway, cfg models.GatewayConfig, webhook models.WebhookConfig) *Engine {
	return &Engine{
		store:   ledger,
		gateway: gw,
		cfg:     cfg,
		webhook: webhook,
	}
}

// ListBanks passes the provider's bank directory through.
func (e *Engine) ListBanks(ctx context.Context) (*models.BanksResponse, error) {
	return e.gateway.ListBanks(ctx)
}

// ListPayments returns payment records for reporting, newest first.
func (e *Engine) ListPayments(ctx context.Context, limit, offset int) ([]models.Payment, error) {
	return e.store.GetPayments(ctx, limit, offset)
}

// GetPayment returns the payment carrying the transaction reference.
func (e *Engine) GetPayment(ctx context.Context, reference string) (*models.Payment, error) {
	return e.store.GetPaymentByReference(ctx, reference)
}
