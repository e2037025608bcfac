package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HasResponded reports whether the user already responded to the survey.
func (s *Service) HasResponded(ctx context.Context, surveyId, userId string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, queryHasResponded, surveyId, userId).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check response: %w", err)
	}
	return true, nil
}

// CreateResponse records an accepted submission as one transaction: the
// response row, its answers, and the zero-sum reward transfer (creator
// balance down / totalSpend up, respondent balance up / totalEarn up).
// Wallet updates tolerate a missing row on either side; a creator without a
// wallet leaves the obligation unbacked rather than aborting the submission.
func (s *Service) CreateResponse(ctx context.Context, params store.CreateResponseParams) (*models.Response, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	responseId := uuid.New().String()
	_, err = tx.ExecContext(ctx, queryInsertResponse, responseId, params.SurveyId, params.UserId)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyResponded
		}
		return nil, fmt.Errorf("failed to insert response: %w", err)
	}

	for _, answer := range params.Answers {
		_, err = tx.ExecContext(ctx, queryInsertAnswer,
			uuid.New().String(), answer.QuestionId, params.UserId, answer.Answer)
		if err != nil {
			return nil, fmt.Errorf("failed to insert answer: %w", err)
		}
	}

	// Debit the creator. No post-decrement non-negativity check: live survey
	// rewards are assumed pre-funded by the refund calculation.
	creatorWallet, err := getWalletTx(ctx, tx, params.CreatorId)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get creator wallet: %w", err)
	}
	if err == nil {
		err = updateWalletTx(ctx, tx, creatorWallet,
			creatorWallet.Balance.Sub(params.Reward),
			creatorWallet.TotalEarn,
			creatorWallet.TotalSpend.Add(params.Reward))
		if err != nil {
			return nil, err
		}
	} else {
		zap.L().Warn("Creator has no wallet, reward obligation unbacked",
			zap.String("creator_id", params.CreatorId),
			zap.String("survey_id", params.SurveyId))
	}

	// Credit the respondent.
	respondentWallet, err := getWalletTx(ctx, tx, params.UserId)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get respondent wallet: %w", err)
	}
	if err == nil {
		err = updateWalletTx(ctx, tx, respondentWallet,
			respondentWallet.Balance.Add(params.Reward),
			respondentWallet.TotalEarn.Add(params.Reward),
			respondentWallet.TotalSpend)
		if err != nil {
			return nil, err
		}
	} else {
		walletId := uuid.New().String()
		_, err = tx.ExecContext(ctx, queryInsertWallet,
			walletId, params.UserId, params.Reward.String(), params.Reward.String(), "0")
		if err != nil {
			return nil, fmt.Errorf("failed to create respondent wallet: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Response recorded and reward transferred",
		zap.String("response_id", responseId),
		zap.String("survey_id", params.SurveyId),
		zap.String("user_id", params.UserId),
		zap.String("reward", params.Reward.String()))

	return &models.Response{Id: responseId, SurveyId: params.SurveyId, UserId: params.UserId}, nil
}

// GetSurveyAnswers returns a survey's questions with one page of answers.
func (s *Service) GetSurveyAnswers(ctx context.Context, surveyId string, page, limit int) (*models.SurveyAnswers, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	questions, err := s.GetSurveyQuestions(ctx, surveyId)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	rows, err := s.db.QueryContext(ctx, queryGetSurveyAnswers, surveyId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey answers: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var answers []models.Answer
	for rows.Next() {
		var answer models.Answer
		err := rows.Scan(&answer.Id, &answer.QuestionId, &answer.UserId,
			&answer.Answer, &answer.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer rows: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, queryCountSurveyAnswers, surveyId).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count survey answers: %w", err)
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return &models.SurveyAnswers{
		SurveyId:  surveyId,
		Questions: questions,
		Answers:   answers,
		Pagination: models.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
