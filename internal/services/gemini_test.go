package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healbites/healbites/internal/models"
)

func recipeWith(ingredients ...string) models.Recipe {
	r := models.Recipe{ID: "r", Title: "Test"}
	for _, name := range ingredients {
		r.Ingredients = append(r.Ingredients, models.Ingredient{Name: name})
	}
	return r
}

func TestFilterAllergensDropsMatchingRecipes(t *testing.T) {
	recipes := []models.Recipe{
		recipeWith("Chicken breast", "Rice"),
		recipeWith("Peanut butter", "Toast"),
		recipeWith("Salmon", "Lemon"),
	}

	safe := filterAllergens(recipes, []string{"peanuts"})
	assert.Len(t, safe, 2)
	for _, r := range safe {
		for _, ing := range r.Ingredients {
			assert.NotContains(t, strings.ToLower(ing.Name), "peanut")
		}
	}
}

func TestFilterAllergensIgnoresCase(t *testing.T) {
	recipes := []models.Recipe{recipeWith("SHELLFISH stock")}
	assert.Empty(t, filterAllergens(recipes, []string{"Shellfish"}))
}

func TestFilterAllergensMatchesSingularForm(t *testing.T) {
	// "eggs" as an allergy should catch an ingredient listed as "egg yolk"
	recipes := []models.Recipe{recipeWith("Egg yolk")}
	assert.Empty(t, filterAllergens(recipes, []string{"eggs"}))
}

func TestFilterAllergensNoAllergies(t *testing.T) {
	recipes := []models.Recipe{recipeWith("Peanut butter")}
	assert.Equal(t, recipes, filterAllergens(recipes, nil))
	assert.Equal(t, recipes, filterAllergens(recipes, []string{"", "  "}))
}

func TestScanKeyFormat(t *testing.T) {
	key := ScanKey(7, "fridge.png")
	assert.True(t, strings.HasPrefix(key, "scans/7/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	// Missing extension falls back to jpg
	assert.True(t, strings.HasSuffix(ScanKey(7, "upload"), ".jpg"))

	// Keys are unique per call
	assert.NotEqual(t, ScanKey(7, "a.jpg"), ScanKey(7, "a.jpg"))
}
