package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/healbites/healbites/internal/middleware"
	"github.com/healbites/healbites/internal/state"
)

// NavigateRequest asks for a view change
type NavigateRequest struct {
	View string `json:"view"`
}

// GetState returns the user's full application state
func (h *Handler) GetState(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	return Success(c, h.ensureState(userID))
}

// Navigate moves the user to another view, enforcing the transition rules.
// The auth view is never a navigation target; it is only reachable by
// signing out.
func (h *Handler) Navigate(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req NavigateRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	target := state.View(req.View)
	if !target.IsValid() {
		return Error(c, fiber.StatusBadRequest, "unknown view")
	}

	current := h.ensureState(userID)
	if !current.CanNavigate(target) {
		return Error(c, fiber.StatusUnprocessableEntity, "navigation not allowed from current view")
	}

	if target == current.View {
		return Success(c, current)
	}

	// Leaving a view cancels its outstanding requests so late results
	// cannot touch the new view's state
	h.tracker.Invalidate(userID, current.View)
	if current.View == state.ViewCookingMode {
		h.cancelSpeech(userID)
	}

	next, err := h.store.Update(userID, func(s state.AppState) state.AppState {
		s.View = target

		switch {
		case target == state.ViewScan:
			// A new scan attempt starts clean
			s.IngredientsFound = nil
			s.Recipes = nil
			s.SelectedRecipe = nil
			s.CookingStep = 0
			s.IsLoading = false
		case target == state.ViewRecipeList:
			// Backing out of cooking keeps the recipe set
			s.SelectedRecipe = nil
			s.CookingStep = 0
		case target == state.ViewHome:
			s.IsLoading = false
			s.IsLocating = false
		}
		return s
	}, state.EventViewChanged)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update state")
	}

	if target == state.ViewScan {
		h.dropImageCache(userID)
	}

	return Success(c, next)
}
