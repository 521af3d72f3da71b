package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/healbites/healbites/internal/middleware"
	"github.com/healbites/healbites/internal/models"
)

// GetShoppingList returns the user's shopping list with the running cost
// estimate
func (h *Handler) GetShoppingList(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	s := h.ensureState(userID)
	return Success(c, fiber.Map{
		"items":           s.ShoppingList,
		"estimated_total": s.EstimatedTotal,
		"balance":         s.Balance,
	})
}

// AddListItem adds one item to the shopping list. An existing item whose name
// matches ignoring case absorbs the add; the response reports whether the
// item was actually appended.
func (h *Handler) AddListItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.AddListItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "item name is required")
	}

	h.ensureState(userID)

	next, added, err := h.engine.AddItem(c.Context(), userID, models.ShoppingListItem{
		Name:      req.Name,
		Amount:    req.Amount,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to add item")
	}

	return Success(c, fiber.Map{
		"added": added,
		"items": next.ShoppingList,
	})
}

// AddListItems is the bulk-add path. Duplicates, both against the current
// list and within the batch itself, are skipped.
func (h *Handler) AddListItems(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.AddListItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Items) == 0 {
		return Error(c, fiber.StatusBadRequest, "items are required")
	}

	items := make([]models.ShoppingListItem, 0, len(req.Items))
	for _, it := range req.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return Error(c, fiber.StatusBadRequest, "item name is required")
		}
		items = append(items, models.ShoppingListItem{
			Name:      name,
			Amount:    it.Amount,
			CreatedAt: time.Now(),
		})
	}

	h.ensureState(userID)

	next, added, err := h.engine.AddItems(c.Context(), userID, items)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to add items")
	}

	return Success(c, fiber.Map{
		"added": added,
		"items": next.ShoppingList,
	})
}

// UpdateListItem changes the free-text amount of one item, keyed by name
func (h *Handler) UpdateListItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	name := itemNameParam(c)
	if name == "" {
		return Error(c, fiber.StatusBadRequest, "item name is required")
	}

	var req models.UpdateListItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	s := h.ensureState(userID)
	if !hasExactItem(s.ShoppingList, name) {
		return Error(c, fiber.StatusNotFound, "item not found")
	}

	next, err := h.engine.UpdateItemAmount(c.Context(), userID, name, req.Amount)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update item")
	}

	return Success(c, fiber.Map{"items": next.ShoppingList})
}

// RemoveListItem deletes one item, keyed by name
func (h *Handler) RemoveListItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	name := itemNameParam(c)
	if name == "" {
		return Error(c, fiber.StatusBadRequest, "item name is required")
	}

	s := h.ensureState(userID)
	if !hasExactItem(s.ShoppingList, name) {
		return Error(c, fiber.StatusNotFound, "item not found")
	}

	next, err := h.engine.RemoveItem(c.Context(), userID, name)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to remove item")
	}

	return Success(c, fiber.Map{"items": next.ShoppingList})
}

// itemNameParam decodes the :name path segment; item names may contain
// spaces and other escaped characters
func itemNameParam(c *fiber.Ctx) string {
	raw := c.Params("name")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func hasExactItem(items []models.ShoppingListItem, name string) bool {
	for _, it := range items {
		if it.Name == name {
			return true
		}
	}
	return false
}
