package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"surveypay-settlement-go/internal/common"
	"surveypay-settlement-go/internal/config"
	"surveypay-settlement-go/internal/database"
	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"go.uber.org/zap"
)

type walletStats struct {
	totalUsers      int
	usersWithWallet int
}

func printWallet(user models.User, wallet *models.Wallet) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Balance:     %20s\n", wallet.Balance.String())
	fmt.Printf("│  Total earn:  %20s\n", wallet.TotalEarn.String())
	fmt.Printf("│  Total spend: %20s\n", wallet.TotalSpend.String())
	fmt.Printf("└─ Version: %d, updated: %s\n", wallet.Version, wallet.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func processUsers(ctx context.Context, users []models.User, dbService *database.Service) walletStats {
	stats := walletStats{}

	for _, user := range users {
		stats.totalUsers++

		wallet, err := dbService.GetWalletByUserId(ctx, user.Id)
		if errors.Is(err, store.ErrWalletNotFound) {
			continue
		}
		if err != nil {
			zap.L().Error("Failed to read wallet",
				zap.String("user_id", user.Id),
				zap.Error(err))
			continue
		}

		stats.usersWithWallet++
		printWallet(user, wallet)
	}

	return stats
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Filter by specific user id (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	var users []models.User
	if *userFlag != "" {
		user, err := dbService.GetUserById(ctx, *userFlag)
		if err != nil {
			zap.L().Fatal("Failed to read user", zap.String("user_id", *userFlag), zap.Error(err))
		}
		users = []models.User{*user}
	} else {
		users, err = dbService.GetUsers(ctx)
		if err != nil {
			zap.L().Fatal("Failed to read users", zap.Error(err))
		}
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)

	stats := processUsers(ctx, users, dbService)

	summary := fmt.Sprintf("SUMMARY: %d of %d users have wallets", stats.usersWithWallet, stats.totalUsers)
	common.PrintFooter(summary, common.DefaultWidth)

	zap.L().Info("Wallet report completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_wallet", stats.usersWithWallet))
}
