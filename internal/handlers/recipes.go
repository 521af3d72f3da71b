package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/healbites/healbites/internal/middleware"
	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/state"
)

// GetRecipes returns the recipe suggestions from the latest scan
func (h *Handler) GetRecipes(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	s := h.ensureState(userID)
	recipes := s.Recipes
	if recipes == nil {
		recipes = []models.Recipe{}
	}

	return Success(c, fiber.Map{
		"ingredients": s.IngredientsFound,
		"recipes":     recipes,
	})
}

// SelectRecipe moves the user into cooking mode on step zero of the chosen
// recipe
func (h *Handler) SelectRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	recipeID := c.Params("id")
	current := h.ensureState(userID)

	recipe := findRecipe(current.Recipes, recipeID)
	if recipe == nil {
		return Error(c, fiber.StatusNotFound, "recipe not found")
	}
	if !current.CanNavigate(state.ViewCookingMode) {
		return Error(c, fiber.StatusUnprocessableEntity, "cooking mode is only reachable from the recipe list")
	}

	h.tracker.Invalidate(userID, current.View)

	next, err := h.store.Update(userID, func(s state.AppState) state.AppState {
		s.View = state.ViewCookingMode
		s.SelectedRecipe = recipe
		s.CookingStep = 0
		return s
	}, state.EventViewChanged)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update state")
	}

	return Success(c, next)
}

// GetRecipeImage generates (or returns the cached) card image for one
// recipe. One image is generated per card per recipe set; a new scan or
// leaving the recipe flow drops the cache.
func (h *Handler) GetRecipeImage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	recipeID := c.Params("id")
	current := h.ensureState(userID)

	recipe := findRecipe(current.Recipes, recipeID)
	if recipe == nil {
		return Error(c, fiber.StatusNotFound, "recipe not found")
	}

	key := imageKey{userID: userID, recipeID: recipe.ID}
	h.imagesMu.Lock()
	cached, ok := h.images[key]
	h.imagesMu.Unlock()
	if ok {
		c.Set(fiber.HeaderContentType, cached.mime)
		return c.Send(cached.data)
	}

	handle := h.tracker.Issue(userID, current.View)

	data, mime, err := h.gateway.GenerateRecipeImage(handle.Context(), recipe.ImagePrompt)
	if err != nil {
		if !handle.Live() {
			return Error(c, fiber.StatusConflict, "request cancelled")
		}
		log.Printf("Warning: image generation failed for recipe %q: %v", recipe.Title, err)
		return Error(c, fiber.StatusBadGateway, "image generation failed")
	}

	if handle.Live() {
		h.imagesMu.Lock()
		h.images[key] = cachedImage{data: data, mime: mime}
		h.imagesMu.Unlock()
	}

	c.Set(fiber.HeaderContentType, mime)
	return c.Send(data)
}

// AddMissingToCart syncs a recipe's missing ingredients into the shopping
// list, skipping names already present ignoring case
func (h *Handler) AddMissingToCart(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	recipeID := c.Params("id")
	current := h.ensureState(userID)

	recipe := findRecipe(current.Recipes, recipeID)
	if recipe == nil {
		return Error(c, fiber.StatusNotFound, "recipe not found")
	}

	missing := recipe.MissingIngredients()
	if len(missing) == 0 {
		return Success(c, fiber.Map{
			"added": 0,
			"items": current.ShoppingList,
		})
	}

	items := make([]models.ShoppingListItem, 0, len(missing))
	now := time.Now()
	for _, ing := range missing {
		items = append(items, models.ShoppingListItem{
			Name:      ing.Name,
			Amount:    ing.Amount,
			CreatedAt: now,
		})
	}

	next, added, err := h.engine.AddItems(c.Context(), userID, items)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to add ingredients")
	}

	return Success(c, fiber.Map{
		"added": added,
		"items": next.ShoppingList,
	})
}

func findRecipe(recipes []models.Recipe, id string) *models.Recipe {
	for i := range recipes {
		if recipes[i].ID == id {
			r := recipes[i]
			return &r
		}
	}
	return nil
}
