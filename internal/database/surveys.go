package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateSurvey inserts a survey together with its questions. Used by the
// setup tooling and tests; survey authoring itself is a controller-layer
// concern.
func (s *Service) CreateSurvey(ctx context.Context, survey *models.Survey, questions []models.Question) (*models.Survey, error) {
	if survey.Id == "" {
		survey.Id = uuid.New().String()
	}
	var targetStr any
	if survey.Target != nil {
		raw, err := json.Marshal(survey.Target)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal target: %w", err)
		}
		targetStr = string(raw)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, queryInsertSurvey,
		survey.Id, survey.CreatorId, survey.Title, survey.Description,
		survey.Reward.String(), survey.Participant, survey.MaxParticipant,
		survey.Status, targetStr, survey.ExpireDate)
	if err != nil {
		return nil, fmt.Errorf("failed to insert survey: %w", err)
	}

	for i, question := range questions {
		questionId := question.Id
		if questionId == "" {
			questionId = uuid.New().String()
		}
		order := question.Order
		if order == 0 {
			order = i
		}
		_, err = tx.ExecContext(ctx, queryInsertQuestion,
			questionId, survey.Id, question.Type, question.Label, question.Required, order)
		if err != nil {
			return nil, fmt.Errorf("failed to insert question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Survey created",
		zap.String("survey_id", survey.Id),
		zap.String("creator_id", survey.CreatorId),
		zap.Int("questions", len(questions)))
	return s.GetSurveyById(ctx, survey.Id)
}

// GetSurveyById returns a survey, or store.ErrSurveyNotFound.
func (s *Service) GetSurveyById(ctx context.Context, surveyId string) (*models.Survey, error) {
	var survey models.Survey
	var rewardStr string
	var targetStr sql.NullString
	var expireDate sql.NullTime
	err := s.db.QueryRowContext(ctx, queryGetSurveyById, surveyId).Scan(
		&survey.Id, &survey.CreatorId, &survey.Title, &survey.Description,
		&rewardStr, &survey.Participant, &survey.MaxParticipant,
		&survey.Status, &targetStr, &expireDate, &survey.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get survey %s: %w", surveyId, err)
	}
	if survey.Reward, err = decimal.NewFromString(rewardStr); err != nil {
		return nil, fmt.Errorf("failed to parse reward %q: %w", rewardStr, err)
	}
	if targetStr.Valid && targetStr.String != "" {
		var target models.TargetCriteria
		if err := json.Unmarshal([]byte(targetStr.String), &target); err != nil {
			return nil, fmt.Errorf("failed to parse target %q: %w", targetStr.String, err)
		}
		survey.Target = &target
	}
	if expireDate.Valid {
		survey.ExpireDate = &expireDate.Time
	}
	return &survey, nil
}

// GetSurveyQuestions returns a survey's questions in authoring order.
func (s *Service) GetSurveyQuestions(ctx context.Context, surveyId string) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, queryGetSurveyQuestions, surveyId)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey questions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var questions []models.Question
	for rows.Next() {
		var question models.Question
		err := rows.Scan(&question.Id, &question.SurveyId, &question.Type,
			&question.Label, &question.Required, &question.Order, &question.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}
	return questions, nil
}

// LiveSurveyObligations sums reward x (maxParticipant - participant) across
// the creator's live surveys: the funds earmarked for future payouts.
func (s *Service) LiveSurveyObligations(ctx context.Context, creatorId string) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, queryGetLiveSurveysByCreator, creatorId)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get live surveys: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	total := decimal.Zero
	for rows.Next() {
		var rewardStr string
		var participant, maxParticipant int64
		if err := rows.Scan(&rewardStr, &participant, &maxParticipant); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan survey: %w", err)
		}
		reward, err := decimal.NewFromString(rewardStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse reward %q: %w", rewardStr, err)
		}
		remaining := decimal.NewFromInt(maxParticipant - participant)
		total = total.Add(reward.Mul(remaining))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating survey rows: %w", err)
	}
	return total, nil
}
