package database

import (
	"context"
	"database/sql"
	"testing"

	"surveypay-settlement-go/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// A :memory: database exists per connection; keep the pool at one.
	db.SetMaxOpenConns(1)

	service := &Service{db: db}
	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func insertTestUser(t *testing.T, service *Service, id, name, email string) {
	t.Helper()
	_, err := service.db.Exec(
		"INSERT INTO users (id, name, email) VALUES (?, ?, ?)", id, name, email)
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
}

func insertTestWallet(t *testing.T, service *Service, userId, balance string) {
	t.Helper()
	_, err := service.db.Exec(
		"INSERT INTO wallets (id, user_id, balance, total_earn, total_spend, version) VALUES (?, ?, ?, '0', '0', 1)",
		"wallet-"+userId, userId, balance)
	if err != nil {
		t.Fatalf("Failed to insert test wallet: %v", err)
	}
}

func mustWallet(t *testing.T, service *Service, userId string) *models.Wallet {
	t.Helper()
	wallet, err := service.GetWalletByUserId(context.Background(), userId)
	if err != nil {
		t.Fatalf("Failed to get wallet for %s: %v", userId, err)
	}
	return wallet
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("Invalid decimal %q: %v", value, err)
	}
	return d
}
