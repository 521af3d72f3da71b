package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/healbites/healbites/internal/middleware"
	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/state"
)

// GetPreferences returns the user's current meal preferences and budget
func (h *Handler) GetPreferences(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	s := h.ensureState(userID)
	return Success(c, s.Profile())
}

// UpdatePreferences applies a partial preference update. Omitted fields keep
// their current values; the sync engine pushes the full profile to the
// database after the state change.
func (h *Handler) UpdatePreferences(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.UpdatePreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.AgeGroup != nil && !req.AgeGroup.IsValid() {
		return Error(c, fiber.StatusBadRequest, "age group must be Adults, Children or Mixed")
	}
	if req.Balance != nil && *req.Balance < 0 {
		return Error(c, fiber.StatusBadRequest, "balance cannot be negative")
	}

	h.ensureState(userID)

	next, err := h.store.Update(userID, func(s state.AppState) state.AppState {
		if req.Servings != nil {
			s.Servings = models.ClampServings(*req.Servings)
		}
		if req.AgeGroup != nil {
			s.AgeGroup = *req.AgeGroup
		}
		if req.Allergies != nil {
			allergies := make([]string, len(*req.Allergies))
			copy(allergies, *req.Allergies)
			s.Allergies = allergies
		}
		if req.Balance != nil {
			s.Balance = *req.Balance
		}
		return s
	}, state.EventProfileChanged)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update preferences")
	}

	return Success(c, next.Profile())
}
