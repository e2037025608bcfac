// Package eligibility decides whether a user satisfies a survey's target
// criteria before a reward transfer is permitted.
package eligibility

import (
	"fmt"
	"strconv"
	"time"

	"surveypay-settlement-go/internal/models"
)

// similarityThreshold is the minimum fuzzy-match score for languages,
// interests, education level and occupation.
const similarityThreshold = 0.5

// Error identifies which target criterion blocked eligibility. The reward
// transfer treats it as a terminal rejection of the submission.
type Error struct {
	Criterion string
}

func (e *Error) Error() string {
	return fmt.Sprintf("user does not meet %s", e.Criterion)
}

// Matches evaluates the user against the target, field by field. Absent
// criteria are permissive, as is an unset user field for a present
// criterion. The first violated criterion is returned as an *Error; nil
// means eligible. Pure function of its inputs: identical inputs always
// yield the identical outcome and violated field.
func Matches(user *models.User, target *models.TargetCriteria) error {
	if target == nil {
		return nil
	}

	age := deriveAge(user.Birthday, time.Now())
	if target.AgeMin != nil && age != nil && *age < *target.AgeMin {
		return &Error{Criterion: "ageMin"}
	}
	if target.AgeMax != nil && age != nil && *age > *target.AgeMax {
		return &Error{Criterion: "ageMax"}
	}
	if target.Gender != "" && user.Gender != "" && target.Gender != user.Gender {
		return &Error{Criterion: "gender"}
	}
	if target.Country != "" && user.Country != "" && target.Country != user.Country {
		return &Error{Criterion: "country"}
	}
	if target.City != "" && user.City != "" && target.City != user.City {
		return &Error{Criterion: "city"}
	}
	if len(target.Languages) > 0 && len(user.Languages) > 0 &&
		ArraySimilarity(target.Languages, user.Languages) < similarityThreshold {
		return &Error{Criterion: "languages"}
	}
	if target.EducationLevel != "" && user.EducationLevel != "" &&
		StringSimilarity(target.EducationLevel, user.EducationLevel) < similarityThreshold {
		return &Error{Criterion: "educationLevel"}
	}
	if target.Occupation != "" && user.Occupation != "" &&
		StringSimilarity(target.Occupation, user.Occupation) < similarityThreshold {
		return &Error{Criterion: "occupation"}
	}
	if income, ok := parseIncome(user.IncomeLevel); ok {
		if target.IncomeMin != nil && income < *target.IncomeMin {
			return &Error{Criterion: "incomeMin"}
		}
		if target.IncomeMax != nil && income > *target.IncomeMax {
			return &Error{Criterion: "incomeMax"}
		}
	}
	if len(target.Interests) > 0 && len(user.Interests) > 0 &&
		ArraySimilarity(target.Interests, user.Interests) < similarityThreshold {
		return &Error{Criterion: "interests"}
	}

	return nil
}

// deriveAge computes whole years since the birthdate, correcting for a
// month/day not yet reached this year. Nil birthday yields nil (no age
// check applies).
func deriveAge(birthday *time.Time, now time.Time) *int {
	if birthday == nil {
		return nil
	}
	age := now.Year() - birthday.Year()
	if now.Month() < birthday.Month() ||
		(now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		age--
	}
	return &age
}

func parseIncome(incomeLevel string) (float64, bool) {
	if incomeLevel == "" {
		return 0, false
	}
	income, err := strconv.ParseFloat(incomeLevel, 64)
	if err != nil {
		return 0, false
	}
	return income, true
}
