package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healbites/healbites/internal/models"
)

func TestNewSessionStateDefaults(t *testing.T) {
	s := NewSessionState(42)

	assert.Equal(t, ViewHome, s.View)
	assert.Equal(t, 42, s.UserID)
	assert.Equal(t, 2, s.Servings)
	assert.Equal(t, models.AgeGroupAdults, s.AgeGroup)
	assert.Empty(t, s.Allergies)
	assert.Equal(t, 50.00, s.Balance)
	assert.Equal(t, 0.0, s.EstimatedTotal)
	assert.Empty(t, s.ShoppingList)
	assert.Nil(t, s.SelectedRecipe)
}

func TestViewIsValid(t *testing.T) {
	for _, v := range []View{ViewAuth, ViewHome, ViewScan, ViewRecipeList, ViewCookingMode, ViewShoppingList} {
		assert.True(t, v.IsValid(), "view %q should be valid", v)
	}
	assert.False(t, View("settings").IsValid())
	assert.False(t, View("").IsValid())
}

func TestCanNavigate(t *testing.T) {
	tests := []struct {
		name string
		from View
		to   View
		want bool
	}{
		{"home to scan", ViewHome, ViewScan, true},
		{"home to cooking", ViewHome, ViewCookingMode, false},
		{"scan back home", ViewScan, ViewHome, true},
		{"scan to recipes", ViewScan, ViewRecipeList, true},
		{"recipes to cooking", ViewRecipeList, ViewCookingMode, true},
		{"recipes rescan", ViewRecipeList, ViewScan, true},
		{"cooking back to recipes", ViewCookingMode, ViewRecipeList, true},
		{"cooking to home", ViewCookingMode, ViewHome, false},
		{"shopping list back home", ViewShoppingList, ViewHome, true},
		{"shopping list to scan", ViewShoppingList, ViewScan, false},
		{"self navigation", ViewHome, ViewHome, true},
		{"auth is never a target", ViewHome, ViewAuth, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSessionState(1)
			s.View = tt.from
			assert.Equal(t, tt.want, s.CanNavigate(tt.to))
		})
	}
}

func TestShoppingListReachableFromAnyAuthedView(t *testing.T) {
	for _, from := range []View{ViewHome, ViewScan, ViewRecipeList, ViewCookingMode} {
		s := NewSessionState(1)
		s.View = from
		assert.True(t, s.CanNavigate(ViewShoppingList), "from %q", from)
	}

	s := NewSessionState(1)
	s.View = ViewAuth
	assert.False(t, s.CanNavigate(ViewShoppingList))
}

func TestHasListItemIgnoresCase(t *testing.T) {
	s := NewSessionState(1)
	s.ShoppingList = []models.ShoppingListItem{
		{Name: "Olive Oil", Amount: "1 bottle"},
	}

	assert.True(t, s.HasListItem("olive oil"))
	assert.True(t, s.HasListItem("OLIVE OIL"))
	assert.False(t, s.HasListItem("olive"))
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSessionState(1)
	s.Allergies = []string{"peanuts"}
	s.ShoppingList = []models.ShoppingListItem{{Name: "Milk", Amount: "1L"}}
	s.Recipes = []models.Recipe{{ID: "r1", Title: "Soup", Steps: []string{"boil"}}}
	s.SelectedRecipe = &s.Recipes[0]

	c := s.clone()
	c.Allergies[0] = "gluten"
	c.ShoppingList[0].Name = "Bread"
	c.Recipes[0].Title = "Stew"
	c.SelectedRecipe.Title = "Stew"

	assert.Equal(t, "peanuts", s.Allergies[0])
	assert.Equal(t, "Milk", s.ShoppingList[0].Name)
	assert.Equal(t, "Soup", s.Recipes[0].Title)
	require.NotNil(t, s.SelectedRecipe)
	assert.Equal(t, "Soup", s.SelectedRecipe.Title)
}

func TestProfileProjection(t *testing.T) {
	s := NewSessionState(7)
	s.Servings = 4
	s.AgeGroup = models.AgeGroupMixed
	s.Allergies = []string{"shellfish"}
	s.Balance = 120.50

	p := s.Profile()
	assert.Equal(t, 7, p.UserID)
	assert.Equal(t, 4, p.Servings)
	assert.Equal(t, models.AgeGroupMixed, p.AgeGroup)
	assert.Equal(t, []string{"shellfish"}, p.Allergies)
	assert.Equal(t, 120.50, p.Balance)
}
