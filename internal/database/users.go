package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"surveypay-settlement-go/internal/models"
	"surveypay-settlement-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateUser inserts a user with their demographic profile. Languages and
// interests are stored as JSON arrays.
func (s *Service) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Id == "" {
		user.Id = uuid.New().String()
	}
	languages, err := json.Marshal(stringsOrEmpty(user.Languages))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal languages: %w", err)
	}
	interests, err := json.Marshal(stringsOrEmpty(user.Interests))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interests: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryInsertUser,
		user.Id, user.Name, user.Email, user.Gender, user.Birthday,
		user.Country, user.City, string(languages),
		user.EducationLevel, user.Occupation, user.IncomeLevel, string(interests))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	zap.L().Info("User created", zap.String("user_id", user.Id), zap.String("email", user.Email))
	return s.GetUserById(ctx, user.Id)
}

// GetUserById returns a user, or store.ErrUserNotFound.
func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	var user models.User
	var languagesStr, interestsStr string
	var birthday sql.NullTime
	err := s.db.QueryRowContext(ctx, queryGetUserById, userId).Scan(
		&user.Id, &user.Name, &user.Email, &user.Gender, &birthday,
		&user.Country, &user.City, &languagesStr,
		&user.EducationLevel, &user.Occupation, &user.IncomeLevel, &interestsStr,
		&user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userId, err)
	}
	if birthday.Valid {
		user.Birthday = &birthday.Time
	}
	if err := json.Unmarshal([]byte(languagesStr), &user.Languages); err != nil {
		return nil, fmt.Errorf("failed to parse languages %q: %w", languagesStr, err)
	}
	if err := json.Unmarshal([]byte(interestsStr), &user.Interests); err != nil {
		return nil, fmt.Errorf("failed to parse interests %q: %w", interestsStr, err)
	}
	return &user, nil
}

// GetUsers returns id, name and email for every user, oldest first. Used by
// reporting tooling; profile fields are not hydrated.
func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.Id, &user.Name, &user.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
