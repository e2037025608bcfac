package store

import (
	"context"
	"errors"
	"time"

	"surveypay-settlement-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicateTransaction   = errors.New("duplicate transaction reference")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrSurveyNotFound         = errors.New("survey not found")
	ErrAlreadyResponded       = errors.New("user already responded to this survey")
)

// SettleOutcome reports what a conditional settlement attempt did.
type SettleOutcome int

const (
	// SettleApplied means the payment transitioned out of pending and any
	// wallet adjustment was committed in the same transaction.
	SettleApplied SettleOutcome = iota
	// SettleAlreadyFinal means the payment was already in a terminal state;
	// the delivery is an idempotent no-op, not an error.
	SettleAlreadyFinal
	// SettleNotFound means no payment carries the reference.
	SettleNotFound
)

// CreatePaymentParams describes a new pending payment row.
type CreatePaymentParams struct {
	UserId        string
	Type          string
	Amount        decimal.Decimal
	Currency      string
	TransactionId string
	Metadata      string
}

// ReserveParams describes an outbound payment whose amount is debited from
// the wallet in the same transaction that records the pending payment.
type ReserveParams struct {
	UserId        string
	Amount        decimal.Decimal
	Currency      string
	TransactionId string
	Metadata      string
}

// CreateResponseParams groups the writes of one accepted survey response:
// the response row, its answers, and the zero-sum reward transfer between
// the creator's and the respondent's wallets.
type CreateResponseParams struct {
	SurveyId  string
	UserId    string
	CreatorId string
	Reward    decimal.Decimal
	Answers   []AnswerParams
}

// AnswerParams is one answer within a response submission.
type AnswerParams struct {
	QuestionId string
	Answer     string
}

// LedgerStore defines the transactional persistence contract the settlement
// engine and reward transfer depend on. Every method that touches more than
// one row commits atomically; balance mutations never happen outside a
// transaction that also writes the corresponding payment or response row.
type LedgerStore interface {
	// --- Users ---
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)

	// --- Wallets ---
	GetWalletByUserId(ctx context.Context, userId string) (*models.Wallet, error)

	// --- Payments ---
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*models.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	GetPayments(ctx context.Context, limit, offset int) ([]models.Payment, error)
	ListStalePendingPayments(ctx context.Context, olderThan time.Time, limit int) ([]models.Payment, error)

	// --- Settlement ---
	SettleFundSuccess(ctx context.Context, reference string) (SettleOutcome, error)
	FailPendingPayments(ctx context.Context, reference string) (int64, error)
	ReserveWithdrawal(ctx context.Context, params ReserveParams) (*models.Payment, error)
	FinalizeWithdrawal(ctx context.Context, reference string) (SettleOutcome, error)
	CompensateWithdrawal(ctx context.Context, reference string) (SettleOutcome, error)
	ReserveRefund(ctx context.Context, params ReserveParams) (*models.Payment, error)
	FinalizeRefund(ctx context.Context, reference string) (SettleOutcome, error)
	CompensateRefund(ctx context.Context, reference string) (SettleOutcome, error)
	SettleFromWebhook(ctx context.Context, reference string, success bool) (SettleOutcome, error)
	ApprovePendingWithdrawal(ctx context.Context, reference string) error

	// --- Surveys & responses ---
	GetSurveyById(ctx context.Context, surveyId string) (*models.Survey, error)
	GetSurveyQuestions(ctx context.Context, surveyId string) ([]models.Question, error)
	LiveSurveyObligations(ctx context.Context, creatorId string) (decimal.Decimal, error)
	HasResponded(ctx context.Context, surveyId, userId string) (bool, error)
	CreateResponse(ctx context.Context, params CreateResponseParams) (*models.Response, error)
	GetSurveyAnswers(ctx context.Context, surveyId string, page, limit int) (*models.SurveyAnswers, error)

	// --- Lifecycle ---
	Close()
}
