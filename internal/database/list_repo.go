package database

import (
	"context"
	"errors"

	"github.com/healbites/healbites/internal/models"
)

var ErrItemNotFound = errors.New("shopping list item not found")

// GetShoppingList returns a user's shopping list ordered by creation time
func (db *DB) GetShoppingList(ctx context.Context, userID int) ([]models.ShoppingListItem, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT name, amount, created_at
		FROM shopping_list
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ShoppingListItem
	for rows.Next() {
		var item models.ShoppingListItem
		if err := rows.Scan(&item.Name, &item.Amount, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// InsertListItems inserts shopping list rows for a user in one batch.
// Rows that collide on the case-insensitive name are skipped; duplicate
// detection against in-memory state happens before this call.
func (db *DB) InsertListItems(ctx context.Context, userID int, items []models.ShoppingListItem) error {
	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO shopping_list (user_id, name, amount, created_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT DO NOTHING
		`, userID, item.Name, item.Amount)
		if err != nil {
			return err
		}
	}

	return nil
}

// UpdateListItemAmount updates one item's amount keyed by (user id, name)
func (db *DB) UpdateListItemAmount(ctx context.Context, userID int, name, amount string) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE shopping_list SET amount = $3
		WHERE user_id = $1 AND name = $2
	`, userID, name, amount)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteListItem removes one item keyed by (user id, name)
func (db *DB) DeleteListItem(ctx context.Context, userID int, name string) error {
	result, err := db.Pool.Exec(ctx, `
		DELETE FROM shopping_list
		WHERE user_id = $1 AND name = $2
	`, userID, name)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
