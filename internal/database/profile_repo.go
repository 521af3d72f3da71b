package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/healbites/healbites/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// GetProfile retrieves the profile row for a user. A missing row returns
// ErrProfileNotFound; callers keep their in-memory defaults in that case and
// no row is created until the next write.
func (db *DB) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	profile := &models.Profile{}

	err := db.Pool.QueryRow(ctx, `
		SELECT user_id, servings, age_group, allergies, balance, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(
		&profile.UserID,
		&profile.Servings,
		&profile.AgeGroup,
		&profile.Allergies,
		&profile.Balance,
		&profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return profile, nil
}

// UpsertProfile writes the whole profile row keyed by user id.
// Last write wins; there is no version check.
func (db *DB) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO profiles (user_id, servings, age_group, allergies, balance, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET servings = EXCLUDED.servings,
		    age_group = EXCLUDED.age_group,
		    allergies = EXCLUDED.allergies,
		    balance = EXCLUDED.balance,
		    updated_at = NOW()
	`, profile.UserID, profile.Servings, profile.AgeGroup, profile.Allergies, profile.Balance)
	return err
}
