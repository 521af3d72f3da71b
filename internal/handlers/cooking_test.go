package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healbites/healbites/internal/config"
	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/state"
)

func newCookingTestApp(t *testing.T) (*fiber.App, *state.Store) {
	t.Helper()

	store := state.NewStore()
	h := New(nil, &config.Config{}, store, nil, nil, nil, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", 1)
		return c.Next()
	})
	app.Post("/cooking/next", h.NextStep)
	app.Post("/cooking/prev", h.PrevStep)
	app.Post("/cooking/exit", h.ExitCooking)

	return app, store
}

func startCooking(t *testing.T, store *state.Store, steps []string) {
	t.Helper()
	store.Begin(1)
	_, err := store.Update(1, func(s state.AppState) state.AppState {
		recipe := models.Recipe{ID: "r1", Title: "Pasta", Steps: steps}
		s.View = state.ViewCookingMode
		s.Recipes = []models.Recipe{recipe}
		s.SelectedRecipe = &recipe
		s.CookingStep = 0
		return s
	})
	require.NoError(t, err)
}

func postJSON(t *testing.T, app *fiber.App, path string) (*http.Response, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	var body APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func stateFromBody(t *testing.T, body APIResponse) state.AppState {
	t.Helper()
	raw, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var s state.AppState
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestCookingStepNavigation(t *testing.T) {
	app, store := newCookingTestApp(t)
	startCooking(t, store, []string{"chop", "fry", "serve"})

	resp, body := postJSON(t, app, "/cooking/next")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, stateFromBody(t, body).CookingStep)

	resp, body = postJSON(t, app, "/cooking/next")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, stateFromBody(t, body).CookingStep)

	// Advancing past the final step ends the session
	resp, body = postJSON(t, app, "/cooking/next")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := stateFromBody(t, body)
	assert.Equal(t, state.ViewRecipeList, s.View)
	assert.Nil(t, s.SelectedRecipe)
	assert.Equal(t, 0, s.CookingStep)
}

func TestCookingPrevStopsAtZero(t *testing.T) {
	app, store := newCookingTestApp(t)
	startCooking(t, store, []string{"chop", "fry"})

	// Going back on the first step does nothing
	resp, body := postJSON(t, app, "/cooking/prev")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := stateFromBody(t, body)
	assert.Equal(t, 0, s.CookingStep)
	assert.Equal(t, state.ViewCookingMode, s.View)

	postJSON(t, app, "/cooking/next")
	resp, body = postJSON(t, app, "/cooking/prev")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, stateFromBody(t, body).CookingStep)
}

func TestCookingExitReturnsToRecipeList(t *testing.T) {
	app, store := newCookingTestApp(t)
	startCooking(t, store, []string{"chop", "fry"})

	postJSON(t, app, "/cooking/next")
	resp, body := postJSON(t, app, "/cooking/exit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := stateFromBody(t, body)
	assert.Equal(t, state.ViewRecipeList, s.View)
	assert.Nil(t, s.SelectedRecipe)

	// Outside cooking mode the step endpoints refuse
	resp, _ = postJSON(t, app, "/cooking/next")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
