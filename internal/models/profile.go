package models

import (
	"time"
)

// AgeGroup describes who the meals are cooked for
type AgeGroup string

const (
	AgeGroupAdults   AgeGroup = "Adults"
	AgeGroupChildren AgeGroup = "Children"
	AgeGroupMixed    AgeGroup = "Mixed"
)

// IsValid reports whether the age group is one of the known values
func (a AgeGroup) IsValid() bool {
	return a == AgeGroupAdults || a == AgeGroupChildren || a == AgeGroupMixed
}

const (
	MinServings = 1
	MaxServings = 20
)

// Profile holds a user's meal preferences and budget.
// One row per user, upserted whole on any field change.
type Profile struct {
	UserID    int       `json:"user_id"`
	Servings  int       `json:"servings"`
	AgeGroup  AgeGroup  `json:"age_group"`
	Allergies []string  `json:"allergies"`
	Balance   float64   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultProfile returns the preferences a fresh account starts with
func DefaultProfile(userID int) Profile {
	return Profile{
		UserID:    userID,
		Servings:  2,
		AgeGroup:  AgeGroupAdults,
		Allergies: []string{},
		Balance:   50.00,
	}
}

// ClampServings forces a serving count into the supported range
func ClampServings(n int) int {
	if n < MinServings {
		return MinServings
	}
	if n > MaxServings {
		return MaxServings
	}
	return n
}

// UpdatePreferencesRequest is the request body for preference changes
type UpdatePreferencesRequest struct {
	Servings  *int      `json:"servings,omitempty"`
	AgeGroup  *AgeGroup `json:"age_group,omitempty"`
	Allergies *[]string `json:"allergies,omitempty"`
	Balance   *float64  `json:"balance,omitempty"`
}
