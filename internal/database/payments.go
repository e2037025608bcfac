package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanPayment(row rowScanner) (*models.Payment, error) {
	var payment models.Payment
	var amountStr string
	err := row.Scan(&payment.Id, &payment.UserId, &payment.Type, &amountStr,
		&payment.Currency, &payment.TransactionId, &payment.Status, &payment.Metadata,
		&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if payment.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
	}
	return &payment, nil
}

// CreatePayment inserts a pending payment row for a fresh transaction
// reference. A reference is generated once and never reused, so a duplicate
// is always a caller bug or a replay.
func (s *Service) CreatePayment(ctx context.Context, params store.CreatePaymentParams) (*models.Payment, error) {
	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateReference, params.TransactionId).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate transaction reference detected, skipping",
			zap.String("transaction_id", params.TransactionId),
			zap.String("existing_payment_id", existingId))
		return nil, fmt.Errorf("%w: reference %s already exists", store.ErrDuplicateTransaction, params.TransactionId)
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check for duplicate reference: %w", err)
	}

	metadata := params.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	paymentId := uuid.New().String()
	_, err = s.db.ExecContext(ctx, queryInsertPayment,
		paymentId, params.UserId, params.Type, params.Amount.String(),
		params.Currency, params.TransactionId, models.PaymentStatusPending, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	zap.L().Info("Payment created",
		zap.String("payment_id", paymentId),
		zap.String("user_id", params.UserId),
		zap.String("type", params.Type),
		zap.String("amount", params.Amount.String()),
		zap.String("transaction_id", params.TransactionId))

	return s.GetPaymentByReference(ctx, params.TransactionId)
}

// GetPaymentByReference returns the payment carrying the transaction
// reference, or store.ErrPaymentNotFound.
func (s *Service) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	payment, err := scanPayment(s.db.QueryRowContext(ctx, queryGetPaymentByReference, reference))
	if err == sql.ErrNoRows {
		return nil, store.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by reference: %w", err)
	}
	return payment, nil
}

// GetPayments returns payment records for reporting, newest first.
func (s *Service) GetPayments(ctx context.Context, limit, offset int) ([]models.Payment, error) {
	return s.queryPayments(ctx, queryGetPayments, limit, offset)
}

// ListStalePendingPayments returns pending payments created before the
// cutoff, oldest first, for the reconciler to re-verify.
func (s *Service) ListStalePendingPayments(ctx context.Context, olderThan time.Time, limit int) ([]models.Payment, error) {
	return s.queryPayments(ctx, queryListStalePendingPayments, olderThan, limit)
}

func (s *Service) queryPayments(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}

// settlePendingTx applies the conditional pending -> terminal transition
// inside an open transaction. Returns false when the payment was no longer
// pending, i.e. another delivery settled it first.
func settlePendingTx(ctx context.Context, tx *sql.Tx, reference, status string) (bool, error) {
	result, err := tx.ExecContext(ctx, querySettlePendingPayment, status, reference)
	if err != nil {
		return false, fmt.Errorf("failed to settle payment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// SettleFundSuccess finalizes a verified inbound funding: the payment
// transitions pending -> success and the payer's wallet is credited (created
// if absent) in the same transaction, so a crash between them cannot leave a
// success payment with a stale balance.
func (s *Service) SettleFundSuccess(ctx context.Context, reference string) (store.SettleOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := scanPayment(tx.QueryRowContext(ctx, queryGetPaymentByReference, reference))
	if err == sql.ErrNoRows {
		return store.SettleNotFound, nil
	}
	if err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.Status != models.PaymentStatusPending {
		zap.L().Info("Payment already settled, skipping",
			zap.String("transaction_id", reference),
			zap.String("status", payment.Status))
		return store.SettleAlreadyFinal, nil
	}

	transitioned, err := settlePendingTx(ctx, tx, reference, models.PaymentStatusSuccess)
	if err != nil {
		return store.SettleNotFound, err
	}
	if !transitioned {
		return store.SettleAlreadyFinal, nil
	}

	if err := creditWalletTx(ctx, tx, payment.UserId, payment.Amount); err != nil {
		return store.SettleNotFound, err
	}

	if err := tx.Commit(); err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Funding settled",
		zap.String("transaction_id", reference),
		zap.String("user_id", payment.UserId),
		zap.String("amount", payment.Amount.String()))
	return store.SettleApplied, nil
}

// FailPendingPayments marks every pending payment carrying the reference as
// failed. Duplicate reference rows should not occur, but the operation
// tolerates zero-or-more matches.
func (s *Service) FailPendingPayments(ctx context.Context, reference string) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryFailPendingPayments, reference)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payments failed: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rowsAffected, nil
}

// ReserveWithdrawal atomically checks funds, debits the wallet and records a
// pending withdraw payment. The debit is a pessimistic reservation: funds
// leave the available balance before the external transfer is confirmed,
// which prevents double-withdrawal while the transfer is in flight. On
// insufficient funds nothing is written.
func (s *Service) ReserveWithdrawal(ctx context.Context, params store.ReserveParams) (*models.Payment, error) {
	return s.reserveOutbound(ctx, params, models.PaymentTypeWithdraw)
}

// ReserveRefund is the refund counterpart of ReserveWithdrawal: it also
// advances totalSpend, mirroring the reward bookkeeping.
func (s *Service) ReserveRefund(ctx context.Context, params store.ReserveParams) (*models.Payment, error) {
	return s.reserveOutbound(ctx, params, models.PaymentTypeRefund)
}

func (s *Service) reserveOutbound(ctx context.Context, params store.ReserveParams, paymentType string) (*models.Payment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingId string
	err = tx.QueryRowContext(ctx, queryCheckDuplicateReference, params.TransactionId).Scan(&existingId)
	if err == nil {
		return nil, fmt.Errorf("%w: reference %s already exists", store.ErrDuplicateTransaction, params.TransactionId)
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check for duplicate reference: %w", err)
	}

	wallet, err := getWalletTx(ctx, tx, params.UserId)
	if err == sql.ErrNoRows {
		return nil, store.ErrInsufficientFunds
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet.Balance.LessThan(params.Amount) {
		return nil, store.ErrInsufficientFunds
	}

	metadata := params.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	paymentId := uuid.New().String()
	_, err = tx.ExecContext(ctx, queryInsertPayment,
		paymentId, params.UserId, paymentType, params.Amount.String(),
		params.Currency, params.TransactionId, models.PaymentStatusPending, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	newSpend := wallet.TotalSpend
	if paymentType == models.PaymentTypeRefund {
		newSpend = newSpend.Add(params.Amount)
	}
	if err := updateWalletTx(ctx, tx, wallet, wallet.Balance.Sub(params.Amount), wallet.TotalEarn, newSpend); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Funds reserved for outbound transfer",
		zap.String("payment_id", paymentId),
		zap.String("user_id", params.UserId),
		zap.String("type", paymentType),
		zap.String("amount", params.Amount.String()),
		zap.String("transaction_id", params.TransactionId))

	return s.GetPaymentByReference(ctx, params.TransactionId)
}

// FinalizeWithdrawal makes a withdrawal reservation final: the payment
// transitions to success and the balance stays debited.
func (s *Service) FinalizeWithdrawal(ctx context.Context, reference string) (store.SettleOutcome, error) {
	return s.finalizeOutbound(ctx, reference)
}

// FinalizeRefund makes a refund reservation final.
func (s *Service) FinalizeRefund(ctx context.Context, reference string) (store.SettleOutcome, error) {
	return s.finalizeOutbound(ctx, reference)
}

func (s *Service) finalizeOutbound(ctx context.Context, reference string) (store.SettleOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	outcome, err := s.settleOutboundTx(ctx, tx, reference, true)
	if err != nil {
		return outcome, err
	}
	if err := tx.Commit(); err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return outcome, nil
}

// CompensateWithdrawal rolls back a failed withdrawal: the payment
// transitions to failed and the reserved amount is credited back, atomically.
// Net effect across the attempt is zero.
func (s *Service) CompensateWithdrawal(ctx context.Context, reference string) (store.SettleOutcome, error) {
	return s.compensateOutbound(ctx, reference)
}

// CompensateRefund rolls back a failed refund: failed status, balance
// credited back, totalSpend decremented.
func (s *Service) CompensateRefund(ctx context.Context, reference string) (store.SettleOutcome, error) {
	return s.compensateOutbound(ctx, reference)
}

func (s *Service) compensateOutbound(ctx context.Context, reference string) (store.SettleOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	outcome, err := s.settleOutboundTx(ctx, tx, reference, false)
	if err != nil {
		return outcome, err
	}
	if err := tx.Commit(); err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return outcome, nil
}

// settleOutboundTx settles a pending outbound payment inside an open
// transaction. On success the earlier reservation stands; on failure the
// reservation is reversed (and for refunds totalSpend rolled back).
func (s *Service) settleOutboundTx(ctx context.Context, tx *sql.Tx, reference string, success bool) (store.SettleOutcome, error) {
	payment, err := scanPayment(tx.QueryRowContext(ctx, queryGetPaymentByReference, reference))
	if err == sql.ErrNoRows {
		return store.SettleNotFound, store.ErrPaymentNotFound
	}
	if err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.Status != models.PaymentStatusPending {
		return store.SettleAlreadyFinal, nil
	}

	status := models.PaymentStatusSuccess
	if !success {
		status = models.PaymentStatusFailed
	}
	transitioned, err := settlePendingTx(ctx, tx, reference, status)
	if err != nil {
		return store.SettleNotFound, err
	}
	if !transitioned {
		return store.SettleAlreadyFinal, nil
	}

	if !success {
		wallet, err := getWalletTx(ctx, tx, payment.UserId)
		if err == sql.ErrNoRows {
			// Reservation implies the wallet existed; a missing row here is
			// a data problem worth surfacing.
			return store.SettleNotFound, store.ErrWalletNotFound
		}
		if err != nil {
			return store.SettleNotFound, fmt.Errorf("failed to get wallet: %w", err)
		}
		newSpend := wallet.TotalSpend
		if payment.Type == models.PaymentTypeRefund {
			newSpend = newSpend.Sub(payment.Amount)
		}
		if err := updateWalletTx(ctx, tx, wallet, wallet.Balance.Add(payment.Amount), wallet.TotalEarn, newSpend); err != nil {
			return store.SettleNotFound, err
		}
		zap.L().Info("Reservation compensated",
			zap.String("transaction_id", reference),
			zap.String("user_id", payment.UserId),
			zap.String("type", payment.Type),
			zap.String("amount", payment.Amount.String()))
	}

	return store.SettleApplied, nil
}

// SettleFromWebhook applies the provider's authoritative final status. The
// optimistic-reservation paths own the balance delta for outbound transfers:
// a success here only finalizes status, a failure applies the same
// compensation the synchronous path would have. Fund payments are credited
// exactly as the callback path does. Terminal payments are a no-op.
func (s *Service) SettleFromWebhook(ctx context.Context, reference string, success bool) (store.SettleOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := scanPayment(tx.QueryRowContext(ctx, queryGetPaymentByReference, reference))
	if err == sql.ErrNoRows {
		return store.SettleNotFound, nil
	}
	if err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.Status != models.PaymentStatusPending {
		return store.SettleAlreadyFinal, nil
	}

	var outcome store.SettleOutcome
	if payment.Type == models.PaymentTypeFund {
		status := models.PaymentStatusSuccess
		if !success {
			status = models.PaymentStatusFailed
		}
		transitioned, err := settlePendingTx(ctx, tx, reference, status)
		if err != nil {
			return store.SettleNotFound, err
		}
		if !transitioned {
			return store.SettleAlreadyFinal, nil
		}
		if success {
			if err := creditWalletTx(ctx, tx, payment.UserId, payment.Amount); err != nil {
				return store.SettleNotFound, err
			}
		}
		outcome = store.SettleApplied
	} else {
		outcome, err = s.settleOutboundTx(ctx, tx, reference, success)
		if err != nil {
			return outcome, err
		}
	}

	if err := tx.Commit(); err != nil {
		return store.SettleNotFound, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Webhook settlement applied",
		zap.String("transaction_id", reference),
		zap.String("type", payment.Type),
		zap.Bool("success", success))
	return outcome, nil
}

// ApprovePendingWithdrawal force-transitions a pending withdraw payment to
// success without gateway interaction (manual reconciliation path).
func (s *Service) ApprovePendingWithdrawal(ctx context.Context, reference string) error {
	result, err := s.db.ExecContext(ctx, querySettlePendingWithdrawal, reference)
	if err != nil {
		return fmt.Errorf("failed to approve withdrawal: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: no pending withdrawal for reference %s", store.ErrPaymentNotFound, reference)
	}
	zap.L().Info("Withdrawal approved manually", zap.String("transaction_id", reference))
	return nil
}
