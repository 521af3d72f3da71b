package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healbites/healbites/internal/config"
	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/state"
)

func newPreferencesTestApp(t *testing.T) (*fiber.App, *state.Store) {
	t.Helper()

	store := state.NewStore()
	h := New(nil, &config.Config{}, store, nil, nil, nil, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", 1)
		return c.Next()
	})
	app.Get("/preferences", h.GetPreferences)
	app.Put("/preferences", h.UpdatePreferences)

	return app, store
}

func putPreferences(t *testing.T, app *fiber.App, payload string) (*http.Response, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/preferences", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var body APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func profileFromBody(t *testing.T, body APIResponse) models.Profile {
	t.Helper()
	raw, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var p models.Profile
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func TestUpdatePreferencesPartial(t *testing.T) {
	app, _ := newPreferencesTestApp(t)

	resp, body := putPreferences(t, app, `{"servings": 4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := profileFromBody(t, body)
	assert.Equal(t, 4, p.Servings)
	// Omitted fields keep their defaults
	assert.Equal(t, models.AgeGroupAdults, p.AgeGroup)
	assert.Equal(t, 50.0, p.Balance)

	resp, body = putPreferences(t, app, `{"age_group": "Children", "allergies": ["peanuts"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p = profileFromBody(t, body)
	assert.Equal(t, 4, p.Servings)
	assert.Equal(t, models.AgeGroupChildren, p.AgeGroup)
	assert.Equal(t, []string{"peanuts"}, p.Allergies)
}

func TestUpdatePreferencesClampsServings(t *testing.T) {
	app, _ := newPreferencesTestApp(t)

	resp, body := putPreferences(t, app, `{"servings": 500}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MaxServings, profileFromBody(t, body).Servings)

	resp, body = putPreferences(t, app, `{"servings": -3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.MinServings, profileFromBody(t, body).Servings)
}

func TestUpdatePreferencesValidation(t *testing.T) {
	app, _ := newPreferencesTestApp(t)

	resp, _ := putPreferences(t, app, `{"age_group": "Teenagers"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = putPreferences(t, app, `{"balance": -10}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
