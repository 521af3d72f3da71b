package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/healbites/healbites/internal/middleware"
	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/state"
)

// NearbyStoresRequest carries the user's position
type NearbyStoresRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FindNearbyStores looks up supermarkets around the user's position and
// replaces the stored result set wholesale. A failed lookup keeps the
// previous results.
func (h *Handler) FindNearbyStores(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req NearbyStoresRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	// Validate coordinates
	if req.Latitude < -90 || req.Latitude > 90 {
		return Error(c, fiber.StatusBadRequest, "latitude must be between -90 and 90")
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return Error(c, fiber.StatusBadRequest, "longitude must be between -180 and 180")
	}

	h.ensureState(userID)
	h.store.Update(userID, func(s state.AppState) state.AppState {
		s.IsLocating = true
		return s
	})

	stores, err := h.locator.FindNearbySupermarkets(c.Context(), req.Latitude, req.Longitude)
	if err != nil {
		h.store.Update(userID, func(s state.AppState) state.AppState {
			s.IsLocating = false
			return s
		})
		log.Printf("Warning: nearby store lookup failed for user %d: %v", userID, err)
		return Error(c, fiber.StatusBadGateway, "store lookup failed")
	}
	if stores == nil {
		stores = []models.NearbyStore{}
	}

	next, err := h.store.Update(userID, func(s state.AppState) state.AppState {
		s.IsLocating = false
		s.NearbyStores = stores
		return s
	})
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update state")
	}

	return Success(c, next.NearbyStores)
}
