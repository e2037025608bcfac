package database

import (
	"context"
	"database/sql"
	"fmt"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetWalletByUserId returns a user's wallet, or store.ErrWalletNotFound.
// Absence of a wallet is a valid "no funds" state for most flows; callers
// decide whether that is an error.
func (s *Service) GetWalletByUserId(ctx context.Context, userId string) (*models.Wallet, error) {
	wallet, err := scanWallet(s.db.QueryRowContext(ctx, queryGetWalletByUserId, userId))
	if err == sql.ErrNoRows {
		return nil, store.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %s: %w", userId, err)
	}
	return wallet, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var wallet models.Wallet
	var balanceStr, earnStr, spendStr string
	err := row.Scan(&wallet.Id, &wallet.UserId, &balanceStr, &earnStr, &spendStr,
		&wallet.Version, &wallet.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if wallet.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balanceStr, err)
	}
	if wallet.TotalEarn, err = decimal.NewFromString(earnStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_earn %q: %w", earnStr, err)
	}
	if wallet.TotalSpend, err = decimal.NewFromString(spendStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_spend %q: %w", spendStr, err)
	}
	return &wallet, nil
}

// getWalletTx reads a wallet inside an open transaction. Returns
// sql.ErrNoRows when the user has no wallet.
func getWalletTx(ctx context.Context, tx *sql.Tx, userId string) (*models.Wallet, error) {
	return scanWallet(tx.QueryRowContext(ctx, queryGetWalletByUserId, userId))
}

// updateWalletTx writes new wallet totals under the optimistic version
// check. Zero rows affected means another transaction won the race.
func updateWalletTx(ctx context.Context, tx *sql.Tx, wallet *models.Wallet, balance, totalEarn, totalSpend decimal.Decimal) error {
	result, err := tx.ExecContext(ctx, queryUpdateWallet,
		balance.String(), totalEarn.String(), totalSpend.String(), wallet.Id, wallet.Version)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wallet update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}

// creditWalletTx credits balance and totalEarn, creating the wallet when the
// user has none yet (lazy creation on first successful inbound funding).
func creditWalletTx(ctx context.Context, tx *sql.Tx, userId string, amount decimal.Decimal) error {
	wallet, err := getWalletTx(ctx, tx, userId)
	if err == sql.ErrNoRows {
		walletId := uuid.New().String()
		_, err = tx.ExecContext(ctx, queryInsertWallet,
			walletId, userId, amount.String(), amount.String(), "0")
		if err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		zap.L().Info("Wallet created on first funding",
			zap.String("wallet_id", walletId),
			zap.String("user_id", userId),
			zap.String("balance", amount.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get wallet: %w", err)
	}
	return updateWalletTx(ctx, tx, wallet,
		wallet.Balance.Add(amount), wallet.TotalEarn.Add(amount), wallet.TotalSpend)
}
