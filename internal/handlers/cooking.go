package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/healbites/healbites/internal/middleware"
	"github.com/healbites/healbites/internal/state"
)

// NextStep advances cooking mode by one step. Advancing past the final step
// finishes the session and returns the user to the recipe list.
func (h *Handler) NextStep(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	current := h.ensureState(userID)
	if current.View != state.ViewCookingMode || current.SelectedRecipe == nil {
		return Error(c, fiber.StatusConflict, "not in cooking mode")
	}

	// Moving on replaces any step still being read aloud
	h.cancelSpeech(userID)

	if current.CookingStep >= len(current.SelectedRecipe.Steps)-1 {
		return h.finishCooking(c, userID)
	}

	next, err := h.store.Update(userID, func(s state.AppState) state.AppState {
		s.CookingStep++
		return s
	}, state.EventViewChanged)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update state")
	}

	return Success(c, next)
}

// PrevStep moves cooking mode back one step; on the first step it does
// nothing
func (h *Handler) PrevStep(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	current := h.ensureState(userID)
	if current.View != state.ViewCookingMode || current.SelectedRecipe == nil {
		return Error(c, fiber.StatusConflict, "not in cooking mode")
	}

	if current.CookingStep == 0 {
		return Success(c, current)
	}

	h.cancelSpeech(userID)

	next, err := h.store.Update(userID, func(s state.AppState) state.AppState {
		if s.CookingStep > 0 {
			s.CookingStep--
		}
		return s
	}, state.EventViewChanged)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update state")
	}

	return Success(c, next)
}

// ExitCooking abandons the session and returns to the recipe list
func (h *Handler) ExitCooking(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	current := h.ensureState(userID)
	if current.View != state.ViewCookingMode {
		return Error(c, fiber.StatusConflict, "not in cooking mode")
	}

	return h.finishCooking(c, userID)
}

func (h *Handler) finishCooking(c *fiber.Ctx, userID int) error {
	h.cancelSpeech(userID)
	h.tracker.Invalidate(userID, state.ViewCookingMode)

	next, err := h.store.Update(userID, func(s state.AppState) state.AppState {
		s.View = state.ViewRecipeList
		s.SelectedRecipe = nil
		s.CookingStep = 0
		return s
	}, state.EventViewChanged)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update state")
	}

	return Success(c, next)
}

// SpeakStep reads the current step aloud. Requesting a new utterance cancels
// the one still being synthesized, so only the latest step is ever heard.
func (h *Handler) SpeakStep(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	current := h.ensureState(userID)
	if current.View != state.ViewCookingMode || current.SelectedRecipe == nil {
		return Error(c, fiber.StatusConflict, "not in cooking mode")
	}
	if current.CookingStep >= len(current.SelectedRecipe.Steps) {
		return Error(c, fiber.StatusInternalServerError, "cooking step out of range")
	}

	text := fmt.Sprintf("Step %d: %s", current.CookingStep+1, current.SelectedRecipe.Steps[current.CookingStep])

	ctx, done := h.beginSpeech(userID, c.Context())
	defer done()

	audio, mime, err := h.gateway.SynthesizeStepSpeech(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return Error(c, fiber.StatusConflict, "speech request superseded")
		}
		log.Printf("Warning: speech synthesis failed for user %d: %v", userID, err)
		return Error(c, fiber.StatusBadGateway, "speech synthesis failed")
	}

	c.Set(fiber.HeaderContentType, mime)
	return c.Send(audio)
}

// beginSpeech cancels the user's in-flight utterance and registers a new
// one. The returned cleanup removes the registration unless a later
// utterance already replaced it.
func (h *Handler) beginSpeech(userID int, parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sess := &speechSession{cancel: cancel}

	h.speechMu.Lock()
	if prev, ok := h.speech[userID]; ok {
		prev.cancel()
	}
	h.speech[userID] = sess
	h.speechMu.Unlock()

	return ctx, func() {
		h.speechMu.Lock()
		if h.speech[userID] == sess {
			delete(h.speech, userID)
		}
		h.speechMu.Unlock()
		cancel()
	}
}
