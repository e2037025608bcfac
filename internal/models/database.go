package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment types
const (
	PaymentTypeFund     = "fund"
	PaymentTypeWithdraw = "withdraw"
	PaymentTypeRefund   = "refund"
)

// Payment statuses. Transitions are monotone: pending -> success or
// pending -> failed, never reversed.
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Survey statuses
const (
	SurveyStatusDraft    = "draft"
	SurveyStatusPending  = "pending"
	SurveyStatusLive     = "live"
	SurveyStatusEnded    = "ended"
	SurveyStatusRejected = "rejected"
)

// User represents a platform user together with the demographic profile
// evaluated by the eligibility matcher.
type User struct {
	Id             string     `db:"id"`
	Name           string     `db:"name"`
	Email          string     `db:"email"`
	Gender         string     `db:"gender"`
	Birthday       *time.Time `db:"birthday"`
	Country        string     `db:"country"`
	City           string     `db:"city"`
	Languages      []string   `db:"languages"`
	EducationLevel string     `db:"education_level"`
	Occupation     string     `db:"occupation"`
	IncomeLevel    string     `db:"income_level"`
	Interests      []string   `db:"interests"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Wallet is one user's balance record. Balance is only ever mutated inside a
// transaction that also writes the corresponding Payment or Response row.
type Wallet struct {
	Id         string          `db:"id"`
	UserId     string          `db:"user_id"`
	Balance    decimal.Decimal `db:"balance"`
	TotalEarn  decimal.Decimal `db:"total_earn"`
	TotalSpend decimal.Decimal `db:"total_spend"`
	Version    int64           `db:"version"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// Payment is an append-mostly record of one monetary movement. TransactionId
// is the provider-facing idempotency key, generated once and never reused.
type Payment struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	Type          string          `db:"type"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	TransactionId string          `db:"transaction_id"`
	Status        string          `db:"status"`
	Metadata      string          `db:"metadata"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// TargetCriteria is a survey's declared constraints on who may respond.
// Absent fields are permissive.
type TargetCriteria struct {
	AgeMin         *int     `json:"ageMin,omitempty"`
	AgeMax         *int     `json:"ageMax,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	Country        string   `json:"country,omitempty"`
	City           string   `json:"city,omitempty"`
	Languages      []string `json:"languages,omitempty"`
	EducationLevel string   `json:"educationLevel,omitempty"`
	Occupation     string   `json:"occupation,omitempty"`
	IncomeMin      *float64 `json:"incomeMin,omitempty"`
	IncomeMax      *float64 `json:"incomeMax,omitempty"`
	Interests      []string `json:"interests,omitempty"`
}

// Survey is owned by a creator and pays Reward per accepted response.
type Survey struct {
	Id             string          `db:"id"`
	CreatorId      string          `db:"creator_id"`
	Title          string          `db:"title"`
	Description    string          `db:"description"`
	Reward         decimal.Decimal `db:"reward"`
	Participant    int             `db:"participant"`
	MaxParticipant int             `db:"max_participant"`
	Status         string          `db:"status"`
	Target         *TargetCriteria `db:"target"`
	ExpireDate     *time.Time      `db:"expire_date"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Question belongs to one survey.
type Question struct {
	Id        string    `db:"id"`
	SurveyId  string    `db:"survey_id"`
	Type      string    `db:"type"`
	Label     string    `db:"label"`
	Required  bool      `db:"required"`
	Order     int       `db:"ord"`
	CreatedAt time.Time `db:"created_at"`
}

// Response is one respondent's completed submission, unique per
// (survey, user) pair.
type Response struct {
	Id        string    `db:"id"`
	SurveyId  string    `db:"survey_id"`
	UserId    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Answer is one answered question within a response.
type Answer struct {
	Id         string    `db:"id"`
	QuestionId string    `db:"question_id"`
	UserId     string    `db:"user_id"`
	Answer     string    `db:"answer"`
	CreatedAt  time.Time `db:"created_at"`
}
