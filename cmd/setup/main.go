package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"surveypay-settlement-go/internal/common"
	"surveypay-settlement-go/internal/config"
	"surveypay-settlement-go/internal/database"
	"surveypay-settlement-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func createDemoData(ctx context.Context, dbService *database.Service) error {
	birthday := time.Date(1995, time.March, 12, 0, 0, 0, 0, time.UTC)

	creator, err := dbService.CreateUser(ctx, &models.User{
		Name:    "Demo Creator",
		Email:   "creator@example.com",
		Country: "Ethiopia",
		City:    "Addis Ababa",
	})
	if err != nil {
		return fmt.Errorf("failed to create demo creator: %w", err)
	}

	respondent, err := dbService.CreateUser(ctx, &models.User{
		Name:           "Demo Respondent",
		Email:          "respondent@example.com",
		Gender:         "female",
		Birthday:       &birthday,
		Country:        "Ethiopia",
		City:           "Addis Ababa",
		Languages:      []string{"Amharic", "English"},
		EducationLevel: "bachelor",
		Occupation:     "engineer",
		IncomeLevel:    "1200",
		Interests:      []string{"technology", "music"},
	})
	if err != nil {
		return fmt.Errorf("failed to create demo respondent: %w", err)
	}

	ageMin := 18
	survey, err := dbService.CreateSurvey(ctx, &models.Survey{
		CreatorId:      creator.Id,
		Title:          "Demo Product Feedback",
		Description:    "A short demo survey",
		Reward:         decimal.NewFromInt(10),
		MaxParticipant: 20,
		Status:         models.SurveyStatusLive,
		Target: &models.TargetCriteria{
			AgeMin:  &ageMin,
			Country: "Ethiopia",
		},
	}, []models.Question{
		{Label: "How often do you use the product?", Type: "text", Required: true, Order: 1},
		{Label: "Would you recommend it?", Type: "text", Order: 2},
	})
	if err != nil {
		return fmt.Errorf("failed to create demo survey: %w", err)
	}

	zap.L().Info("Demo data created",
		zap.String("creator_id", creator.Id),
		zap.String("respondent_id", respondent.Id),
		zap.String("survey_id", survey.Id))
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	demoFlag := flag.Bool("demo", false, "Create demo users and a demo survey")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	common.PrintHeader("SURVEYPAY DATABASE SETUP", common.DefaultWidth)

	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	if *demoFlag || cfg.Database.CreateDemoData {
		if err := createDemoData(ctx, dbService); err != nil {
			zap.L().Fatal("Failed to create demo data", zap.Error(err))
		}
	}

	common.PrintFooter("Setup complete: "+cfg.Database.Path, common.DefaultWidth)
}
