package common

import (
	"context"
	"log"
	"strings"

	"surveypay-settlement-go/internal/database"
	"surveypay-settlement-go/internal/gateway"
	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/response"
	"surveypay-settlement-go/internal/settlement"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

// Services bundles the wired application services.
type Services struct {
	DbService      *database.Service
	GatewayService *gateway.Service
	Engine         *settlement.Engine
	Responses      *response.Service
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	gatewayService, err := gateway.NewService(cfg.Gateway)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	engine := settlement.NewEngine(dbService, gatewayService, cfg.Gateway, cfg.Webhook)
	responses := response.NewService(dbService)

	return &Services{
		DbService:      dbService,
		GatewayService: gatewayService,
		Engine:         engine,
		Responses:      responses,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service without the
// payment gateway. Useful for offline tooling like schema setup.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
