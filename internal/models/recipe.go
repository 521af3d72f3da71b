package models

import (
	"time"
)

// Difficulty rates how demanding a recipe is to cook
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Ingredient is a line within a recipe's ingredient list. IsMissing is set
// when the detected quantity is not enough for the requested servings, in
// which case Amount holds the exact top-up amount to buy.
type Ingredient struct {
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	IsMissing bool   `json:"isMissing"`
}

// Recipe is produced transiently by a fridge scan; it is never persisted
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Difficulty  Difficulty   `json:"difficulty"`
	PrepTime    string       `json:"prepTime"`
	Calories    float64      `json:"calories"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	ImagePrompt string       `json:"imagePrompt"`
	Tags        []string     `json:"tags"`
}

// MissingIngredients returns the ingredients flagged for purchase
func (r *Recipe) MissingIngredients() []Ingredient {
	var missing []Ingredient
	for _, ing := range r.Ingredients {
		if ing.IsMissing {
			missing = append(missing, ing)
		}
	}
	return missing
}

// ScanResult is what a fridge analysis yields
type ScanResult struct {
	Ingredients []string `json:"ingredients"`
	Recipes     []Recipe `json:"recipes"`
}

// FridgeScan is the persisted record of one scan (image archived in S3)
type FridgeScan struct {
	ID          string    `json:"id"`
	UserID      int       `json:"user_id"`
	ObjectKey   string    `json:"object_key"`
	Ingredients []string  `json:"ingredients"`
	CreatedAt   time.Time `json:"created_at"`
}

// NearbyStore is a supermarket close to the user's position.
// Replaced wholesale on each location query.
type NearbyStore struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	URI     string `json:"uri"`
	Phone   string `json:"phone,omitempty"`
}
