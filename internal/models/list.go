package models

import (
	"strings"
	"time"
)

// ShoppingListItem is a single line in a user's shopping list.
// Names are unique per user, compared case-insensitively.
type ShoppingListItem struct {
	Name      string    `json:"name"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// SameName reports whether the item's name matches, ignoring case
func (i ShoppingListItem) SameName(name string) bool {
	return strings.EqualFold(i.Name, name)
}

// AddListItemRequest is the request body for adding a single item
type AddListItemRequest struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// AddListItemsRequest is the request body for the bulk-add path
type AddListItemsRequest struct {
	Items []AddListItemRequest `json:"items"`
}

// UpdateListItemRequest is the request body for changing an item's amount
type UpdateListItemRequest struct {
	Amount string `json:"amount"`
}
