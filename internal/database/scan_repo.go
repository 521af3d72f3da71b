package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/healbites/healbites/internal/models"
)

var ErrScanNotFound = errors.New("scan not found")

// CreateFridgeScan records an archived scan for a user
func (db *DB) CreateFridgeScan(ctx context.Context, scan *models.FridgeScan) error {
	return db.Pool.QueryRow(ctx, `
		INSERT INTO fridge_scans (id, user_id, object_key, ingredients, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`, scan.ID, scan.UserID, scan.ObjectKey, scan.Ingredients).Scan(&scan.CreatedAt)
}

// GetFridgeScan retrieves one of the user's scans by ID
func (db *DB) GetFridgeScan(ctx context.Context, userID int, id string) (*models.FridgeScan, error) {
	scan := &models.FridgeScan{}

	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, object_key, ingredients, created_at
		FROM fridge_scans
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&scan.ID, &scan.UserID, &scan.ObjectKey, &scan.Ingredients, &scan.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}

	return scan, nil
}

// DeleteFridgeScan removes one of the user's scans and returns its object
// key so the caller can drop the archived image
func (db *DB) DeleteFridgeScan(ctx context.Context, userID int, id string) (string, error) {
	var objectKey string

	err := db.Pool.QueryRow(ctx, `
		DELETE FROM fridge_scans
		WHERE id = $1 AND user_id = $2
		RETURNING object_key
	`, id, userID).Scan(&objectKey)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrScanNotFound
		}
		return "", err
	}

	return objectKey, nil
}

// ListFridgeScans returns a user's scan history, newest first
func (db *DB) ListFridgeScans(ctx context.Context, userID, limit int) ([]models.FridgeScan, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, object_key, ingredients, created_at
		FROM fridge_scans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []models.FridgeScan
	for rows.Next() {
		var scan models.FridgeScan
		if err := rows.Scan(&scan.ID, &scan.UserID, &scan.ObjectKey, &scan.Ingredients, &scan.CreatedAt); err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}

	return scans, rows.Err()
}
