package eligibility

import (
	"errors"
	"testing"
	"time"

	"surveypay-settlement-go/internal/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func criterionOf(t *testing.T, err error) string {
	t.Helper()
	var matchErr *Error
	if !errors.As(err, &matchErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	return matchErr.Criterion
}

func TestMatches_NilTargetIsPermissive(t *testing.T) {
	if err := Matches(&models.User{}, nil); err != nil {
		t.Errorf("Expected nil target to match, got %v", err)
	}
}

func TestMatches_EmptyTargetIsPermissive(t *testing.T) {
	if err := Matches(&models.User{}, &models.TargetCriteria{}); err != nil {
		t.Errorf("Expected empty target to match, got %v", err)
	}
}

func TestMatches_AgeBounds(t *testing.T) {
	young := &models.User{Birthday: timePtr(time.Now().AddDate(-16, 0, 0))}
	adult := &models.User{Birthday: timePtr(time.Now().AddDate(-30, 0, 0))}

	target := &models.TargetCriteria{AgeMin: intPtr(18), AgeMax: intPtr(25)}

	err := Matches(young, target)
	if criterionOf(t, err) != "ageMin" {
		t.Errorf("Expected ageMin violation, got %v", err)
	}

	err = Matches(adult, target)
	if criterionOf(t, err) != "ageMax" {
		t.Errorf("Expected ageMax violation, got %v", err)
	}

	// Without a birthday no age check applies.
	if err := Matches(&models.User{}, target); err != nil {
		t.Errorf("Expected unset birthday to pass, got %v", err)
	}
}

func TestMatches_ExactFields(t *testing.T) {
	user := &models.User{Gender: "female", Country: "Ethiopia", City: "Addis Ababa"}

	if err := Matches(user, &models.TargetCriteria{Gender: "female", Country: "Ethiopia"}); err != nil {
		t.Errorf("Expected match, got %v", err)
	}

	err := Matches(user, &models.TargetCriteria{Gender: "male"})
	if criterionOf(t, err) != "gender" {
		t.Errorf("Expected gender violation, got %v", err)
	}

	err = Matches(user, &models.TargetCriteria{City: "Hawassa"})
	if criterionOf(t, err) != "city" {
		t.Errorf("Expected city violation, got %v", err)
	}

	// Unset user field is permissive even when the criterion is present.
	if err := Matches(&models.User{}, &models.TargetCriteria{Gender: "male"}); err != nil {
		t.Errorf("Expected unset gender to pass, got %v", err)
	}
}

func TestMatches_FuzzyFields(t *testing.T) {
	user := &models.User{
		Languages:      []string{"Amharic", "English"},
		EducationLevel: "bachelor",
		Occupation:     "engineer",
	}

	if err := Matches(user, &models.TargetCriteria{Languages: []string{"english"}}); err != nil {
		t.Errorf("Expected language match, got %v", err)
	}

	err := Matches(user, &models.TargetCriteria{Languages: []string{"zzzzzz"}})
	if criterionOf(t, err) != "languages" {
		t.Errorf("Expected languages violation, got %v", err)
	}

	if err := Matches(user, &models.TargetCriteria{EducationLevel: "bachelors"}); err != nil {
		t.Errorf("Expected fuzzy education match, got %v", err)
	}

	err = Matches(user, &models.TargetCriteria{Occupation: "plumber"})
	if criterionOf(t, err) != "occupation" {
		t.Errorf("Expected occupation violation, got %v", err)
	}
}

func TestMatches_IncomeBounds(t *testing.T) {
	user := &models.User{IncomeLevel: "1200"}

	if err := Matches(user, &models.TargetCriteria{IncomeMin: floatPtr(1000), IncomeMax: floatPtr(2000)}); err != nil {
		t.Errorf("Expected income match, got %v", err)
	}

	err := Matches(user, &models.TargetCriteria{IncomeMin: floatPtr(1500)})
	if criterionOf(t, err) != "incomeMin" {
		t.Errorf("Expected incomeMin violation, got %v", err)
	}

	err = Matches(user, &models.TargetCriteria{IncomeMax: floatPtr(1000)})
	if criterionOf(t, err) != "incomeMax" {
		t.Errorf("Expected incomeMax violation, got %v", err)
	}

	// Non-numeric income skips the bound checks.
	vague := &models.User{IncomeLevel: "prefer not to say"}
	if err := Matches(vague, &models.TargetCriteria{IncomeMin: floatPtr(1500)}); err != nil {
		t.Errorf("Expected unparseable income to pass, got %v", err)
	}
}

func TestMatches_Interests(t *testing.T) {
	user := &models.User{Interests: []string{"technology", "music"}}

	if err := Matches(user, &models.TargetCriteria{Interests: []string{"Technology"}}); err != nil {
		t.Errorf("Expected interest match, got %v", err)
	}

	err := Matches(user, &models.TargetCriteria{Interests: []string{"qqqqqqqqqq"}})
	if criterionOf(t, err) != "interests" {
		t.Errorf("Expected interests violation, got %v", err)
	}
}

func TestMatches_Deterministic(t *testing.T) {
	user := &models.User{
		Gender:    "female",
		Country:   "Kenya",
		Languages: []string{"Swahili"},
	}
	target := &models.TargetCriteria{Country: "Ethiopia", Gender: "female"}

	first := Matches(user, target)
	for i := 0; i < 10; i++ {
		again := Matches(user, target)
		if criterionOf(t, first) != criterionOf(t, again) {
			t.Fatalf("Non-deterministic outcome: %v vs %v", first, again)
		}
	}
}

func TestDeriveAge(t *testing.T) {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		birthday time.Time
		expected int
	}{
		{"birthday passed this year", time.Date(2000, time.March, 1, 0, 0, 0, 0, time.UTC), 26},
		{"birthday later this year", time.Date(2000, time.December, 1, 0, 0, 0, 0, time.UTC), 25},
		{"birthday today", time.Date(2000, time.June, 15, 0, 0, 0, 0, time.UTC), 26},
		{"birthday tomorrow", time.Date(2000, time.June, 16, 0, 0, 0, 0, time.UTC), 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age := deriveAge(&tt.birthday, now)
			if age == nil || *age != tt.expected {
				t.Errorf("deriveAge(%v) = %v, want %d", tt.birthday, age, tt.expected)
			}
		})
	}

	if deriveAge(nil, now) != nil {
		t.Error("Expected nil age for nil birthday")
	}
}
