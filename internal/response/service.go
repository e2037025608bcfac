// Package response records survey submissions and funds the per-response
// reward transfer between the creator's and the respondent's wallets.
package response

import (
	"context"
	"fmt"

	"surveypay-settlement-go/internal/eligibility"
	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"go.uber.org/zap"
)

// ErrQuestionNotInSurvey marks an answer referencing a question that does
// not belong to the submitted survey.
var ErrQuestionNotInSurvey = fmt.Errorf("question does not exist in this survey")

// AnswerInput is one answered question within a submission.
type AnswerInput struct {
	QuestionId string `json:"questionId"`
	Answer     string `json:"answer"`
}

// Service validates and records survey responses.
type Service struct {
	store store.LedgerStore
}

func NewService(ledger store.LedgerStore) *Service {
	return &Service{store: ledger}
}

// SubmitResponse runs the precondition checks in order (survey exists, user
// exists, no prior response, eligibility) and validates every answer's
// question membership before any write. The accepted submission commits as
// one transaction: response row, answer rows and the zero-sum reward
// transfer.
func (s *Service) SubmitResponse(ctx context.Context, userId, surveyId string, answers []AnswerInput) (*models.SubmitResult, error) {
	survey, err := s.store.GetSurveyById(ctx, surveyId)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserById(ctx, userId)
	if err != nil {
		return nil, err
	}

	responded, err := s.store.HasResponded(ctx, surveyId, userId)
	if err != nil {
		return nil, err
	}
	if responded {
		return nil, store.ErrAlreadyResponded
	}

	if err := eligibility.Matches(user, survey.Target); err != nil {
		zap.L().Info("Submission rejected by target criteria",
			zap.String("survey_id", surveyId),
			zap.String("user_id", userId),
			zap.Error(err))
		return nil, err
	}

	questions, err := s.store.GetSurveyQuestions(ctx, surveyId)
	if err != nil {
		return nil, err
	}
	questionIds := make(map[string]struct{}, len(questions))
	for _, question := range questions {
		questionIds[question.Id] = struct{}{}
	}
	answerParams := make([]store.AnswerParams, 0, len(answers))
	for _, answer := range answers {
		if _, ok := questionIds[answer.QuestionId]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrQuestionNotInSurvey, answer.QuestionId)
		}
		answerParams = append(answerParams, store.AnswerParams{
			QuestionId: answer.QuestionId,
			Answer:     answer.Answer,
		})
	}

	resp, err := s.store.CreateResponse(ctx, store.CreateResponseParams{
		SurveyId:  surveyId,
		UserId:    userId,
		CreatorId: survey.CreatorId,
		Reward:    survey.Reward,
		Answers:   answerParams,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Response submitted",
		zap.String("response_id", resp.Id),
		zap.String("survey_id", surveyId),
		zap.String("user_id", userId),
		zap.String("reward", survey.Reward.String()))

	return &models.SubmitResult{Message: "Response submitted", ResponseId: resp.Id}, nil
}

// GetSurveyAnswers returns a survey's questions with one page of answers.
func (s *Service) GetSurveyAnswers(ctx context.Context, surveyId string, page, limit int) (*models.SurveyAnswers, error) {
	if _, err := s.store.GetSurveyById(ctx, surveyId); err != nil {
		return nil, err
	}
	return s.store.GetSurveyAnswers(ctx, surveyId, page, limit)
}
