package state

import (
	"github.com/healbites/healbites/internal/models"
)

// View is one of the six mutually-exclusive top-level screens
type View string

const (
	ViewAuth         View = "auth"
	ViewHome         View = "home"
	ViewScan         View = "scan"
	ViewRecipeList   View = "recipe-list"
	ViewCookingMode  View = "cooking-mode"
	ViewShoppingList View = "shopping-list"
)

// IsValid reports whether the view names a known screen
func (v View) IsValid() bool {
	switch v {
	case ViewAuth, ViewHome, ViewScan, ViewRecipeList, ViewCookingMode, ViewShoppingList:
		return true
	}
	return false
}

// transitions holds the defined forward and back edges between screens.
// shopping-list is additionally reachable from every authenticated view,
// and auth is reachable only through sign-out.
var transitions = map[View][]View{
	ViewHome:         {ViewScan},
	ViewScan:         {ViewHome, ViewRecipeList},
	ViewRecipeList:   {ViewScan, ViewCookingMode},
	ViewCookingMode:  {ViewRecipeList},
	ViewShoppingList: {ViewHome},
}

// AppState is the aggregate root for one authenticated user.
// It is mutated only through the Store's transition functions, which replace
// the whole object so no shared mutable references survive an update.
type AppState struct {
	View             View                      `json:"view"`
	UserID           int                       `json:"user_id"`
	IngredientsFound []string                  `json:"ingredients_found"`
	Recipes          []models.Recipe           `json:"recipes"`
	SelectedRecipe   *models.Recipe            `json:"selected_recipe"`
	CookingStep      int                       `json:"cooking_step"`
	ShoppingList     []models.ShoppingListItem `json:"shopping_list"`
	Servings         int                       `json:"servings"`
	AgeGroup         models.AgeGroup           `json:"age_group"`
	Allergies        []string                  `json:"allergies"`
	IsLoading        bool                      `json:"is_loading"`
	IsLocating       bool                      `json:"is_locating"`
	Balance          float64                   `json:"balance"`
	EstimatedTotal   float64                   `json:"estimated_total"`
	NearbyStores     []models.NearbyStore      `json:"nearby_stores"`
}

// NewSessionState is the state a user lands in right after sign-in,
// before hydration has applied the stored profile and list
func NewSessionState(userID int) AppState {
	profile := models.DefaultProfile(userID)
	return AppState{
		View:             ViewHome,
		UserID:           userID,
		IngredientsFound: []string{},
		ShoppingList:     []models.ShoppingListItem{},
		Servings:         profile.Servings,
		AgeGroup:         profile.AgeGroup,
		Allergies:        profile.Allergies,
		Balance:          profile.Balance,
		NearbyStores:     []models.NearbyStore{},
	}
}

// CanNavigate reports whether moving to the given view is a defined edge
func (s AppState) CanNavigate(to View) bool {
	if !to.IsValid() || to == ViewAuth || s.View == ViewAuth {
		return false
	}
	if to == s.View {
		return true
	}
	if to == ViewShoppingList {
		return true
	}
	for _, v := range transitions[s.View] {
		if v == to {
			return true
		}
	}
	return false
}

// Profile projects the denormalized preference fields back into a profile row
func (s AppState) Profile() models.Profile {
	return models.Profile{
		UserID:    s.UserID,
		Servings:  s.Servings,
		AgeGroup:  s.AgeGroup,
		Allergies: append([]string{}, s.Allergies...),
		Balance:   s.Balance,
	}
}

// HasListItem reports whether an item with the name already exists,
// compared case-insensitively
func (s AppState) HasListItem(name string) bool {
	for _, item := range s.ShoppingList {
		if item.SameName(name) {
			return true
		}
	}
	return false
}

// clone deep-copies the aggregate so updates replace the whole object
func (s AppState) clone() AppState {
	out := s
	out.IngredientsFound = append([]string{}, s.IngredientsFound...)
	out.Allergies = append([]string{}, s.Allergies...)
	out.ShoppingList = append([]models.ShoppingListItem{}, s.ShoppingList...)
	out.NearbyStores = append([]models.NearbyStore{}, s.NearbyStores...)
	if s.Recipes != nil {
		out.Recipes = append([]models.Recipe{}, s.Recipes...)
	}
	if s.SelectedRecipe != nil {
		recipe := *s.SelectedRecipe
		out.SelectedRecipe = &recipe
	}
	return out
}
