// Package reconciler periodically re-verifies payments stuck in pending:
// fund payments whose callback or webhook never arrived, and outbound
// transfers awaiting provider confirmation. Settlement idempotency makes the
// sweep safe to run concurrently with live callback/webhook deliveries.
package reconciler

import (
	"context"
	"time"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/settlement"
	"surveypay-settlement-go/internal/store"

	"go.uber.org/zap"
)

type Reconciler struct {
	store   store.LedgerStore
	gateway settlement.Gateway
	engine  *settlement.Engine
	cfg     models.ReconcilerConfig
}

func New(ledger store.LedgerStore, gw settlement.Gateway, engine *settlement.Engine, cfg models.ReconcilerConfig) *Reconciler {
	return &Reconciler{
		store:   ledger,
		gateway: gw,
		engine:  engine,
		cfg:     cfg,
	}
}

// Run sweeps on the polling interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	zap.L().Info("Starting pending-payment reconciler",
		zap.Duration("polling_interval", r.cfg.PollingInterval),
		zap.Duration("lookback_window", r.cfg.LookbackWindow))

	ticker := time.NewTicker(r.cfg.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Reconciler stopped")
			return
		case <-ticker.C:
			if err := r.ReconcileOnce(ctx); err != nil {
				zap.L().Warn("Reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

// ReconcileOnce processes one batch of payments that have been pending for
// longer than the lookback window.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-r.cfg.LookbackWindow)
	stale, err := r.store.ListStalePendingPayments(ctx, cutoff, r.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	zap.L().Info("Reconciling stale pending payments", zap.Int("count", len(stale)))
	for _, payment := range stale {
		r.reconcilePayment(ctx, payment)
	}
	return nil
}

func (r *Reconciler) reconcilePayment(ctx context.Context, payment models.Payment) {
	switch payment.Type {
	case models.PaymentTypeFund:
		// The callback path already implements verify-then-settle with the
		// right idempotency; reuse it wholesale.
		result, err := r.engine.HandleCallback(ctx, payment.TransactionId)
		if err != nil {
			zap.L().Warn("Fund reconciliation deferred",
				zap.String("transaction_id", payment.TransactionId),
				zap.Error(err))
			return
		}
		zap.L().Info("Fund payment reconciled",
			zap.String("transaction_id", payment.TransactionId),
			zap.Bool("success", result.Success))

	case models.PaymentTypeWithdraw, models.PaymentTypeRefund:
		// Only a confirmed transfer finalizes here. An unconfirmed or
		// errored verify leaves the payment pending for the webhook or the
		// manual approval path; compensation on ambiguous evidence could
		// double-credit.
		verifyResp, err := r.gateway.VerifyTransfer(ctx, payment.TransactionId)
		if err != nil {
			zap.L().Warn("Transfer verification deferred",
				zap.String("transaction_id", payment.TransactionId),
				zap.Error(err))
			return
		}
		if verifyResp.Status != "success" {
			zap.L().Info("Transfer still unconfirmed, leaving pending",
				zap.String("transaction_id", payment.TransactionId),
				zap.String("status", verifyResp.Status))
			return
		}
		var outcome store.SettleOutcome
		if payment.Type == models.PaymentTypeWithdraw {
			outcome, err = r.store.FinalizeWithdrawal(ctx, payment.TransactionId)
		} else {
			outcome, err = r.store.FinalizeRefund(ctx, payment.TransactionId)
		}
		if err != nil {
			zap.L().Error("Transfer finalization failed",
				zap.String("transaction_id", payment.TransactionId),
				zap.Error(err))
			return
		}
		zap.L().Info("Outbound transfer reconciled",
			zap.String("transaction_id", payment.TransactionId),
			zap.String("type", payment.Type),
			zap.Bool("applied", outcome == store.SettleApplied))
	}
}
