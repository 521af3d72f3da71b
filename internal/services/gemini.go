package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/healbites/healbites/internal/models"
)

const (
	analysisModel = "gemini-3-flash-preview"
	costModel     = "gemini-3-flash-preview"
	imageModel    = "gemini-2.5-flash-image"
	speechModel   = "gemini-2.5-flash-preview-tts"
	speechVoice   = "Kore"

	// RecipesPerScan is the number of recipes a fridge analysis must yield
	RecipesPerScan = 3

	// FallbackUnitPrice is the per-item estimate callers fall back to when
	// the cost estimator is unreachable or returns something unparseable
	FallbackUnitPrice = 3.50
)

var (
	ErrAnalysisFailed = errors.New("analysis failed")
	ErrNoImageData    = errors.New("no image data in response")
	ErrNoAudioData    = errors.New("no audio data in response")
)

// GeminiService wraps the four generative operations the app depends on.
// All calls are stateless request/response exchanges; nothing is cached here.
type GeminiService struct {
	client *genai.Client
}

// NewGeminiService creates a Gemini-backed AI gateway
func NewGeminiService(ctx context.Context, apiKey string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{client: client}, nil
}

// scanResponseSchema constrains the fridge analysis to the shape the state
// machine consumes
var scanResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"ingredients": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"recipes": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":          {Type: genai.TypeString},
					"title":       {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"difficulty": {
						Type: genai.TypeString,
						Enum: []string{string(models.DifficultyEasy), string(models.DifficultyMedium), string(models.DifficultyHard)},
					},
					"prepTime": {Type: genai.TypeString},
					"calories": {Type: genai.TypeNumber},
					"ingredients": {
						Type: genai.TypeArray,
						Items: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"name":      {Type: genai.TypeString},
								"amount":    {Type: genai.TypeString},
								"isMissing": {Type: genai.TypeBoolean},
							},
							Required: []string{"name", "amount", "isMissing"},
						},
					},
					"steps":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"imagePrompt": {Type: genai.TypeString},
					"tags":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				},
				Required: []string{"id", "title", "description", "difficulty", "prepTime", "calories", "ingredients", "steps", "tags", "imagePrompt"},
			},
		},
	},
	Required: []string{"ingredients", "recipes"},
}

// AnalyzeFridgeImage detects ingredients in a fridge photo and proposes
// exactly three recipes scaled to the requested servings. Detected
// ingredients that fall short of the needed quantity come back flagged
// isMissing with the exact top-up amount. Any failure, including a response
// that survives allergen filtering with fewer than three recipes, is a
// single analysis failure; partial results are not accepted.
func (s *GeminiService) AnalyzeFridgeImage(ctx context.Context, image []byte, mimeType string, servings int, ageGroup models.AgeGroup, allergies []string) (*models.ScanResult, error) {
	allergyText := ""
	if len(allergies) > 0 {
		allergyText = fmt.Sprintf("STRICTLY AVOID these allergens: %s.", strings.Join(allergies, ", "))
	}

	systemInstruction := fmt.Sprintf(`You are "The AI Executive Chef". Your mission is to:
1. Carefully analyze the fridge image to detect ALL visible ingredients.
2. The user wants to serve %d people (%s).
3. %s Ensure all suggested recipes are safe.
4. Scale all recipe ingredient quantities specifically for %d servings.
5. Compare detected ingredients vs required quantities. If you detect an ingredient but it's not enough for %d people, mark it as "isMissing: true" and specify the exact additional amount needed to buy.
6. Create %d gourmet recipes suitable for %s.
7. Provide a specific, descriptive "imagePrompt" for each.
8. Return JSON.`, servings, ageGroup, allergyText, servings, servings, RecipesPerScan, ageGroup)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf("Examine this fridge interior. Suggest %d recipes for %d %s. %s", RecipesPerScan, servings, ageGroup, allergyText)),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, analysisModel, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    scanResponseSchema,
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	var result models.ScanResult
	if err := json.Unmarshal([]byte(resp.Text()), &result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrAnalysisFailed, err)
	}

	// The prompt forbids allergens; drop any recipe that slipped through
	result.Recipes = filterAllergens(result.Recipes, allergies)

	if len(result.Recipes) < RecipesPerScan {
		return nil, fmt.Errorf("%w: expected %d recipes, got %d", ErrAnalysisFailed, RecipesPerScan, len(result.Recipes))
	}
	for _, recipe := range result.Recipes {
		if len(recipe.Steps) == 0 {
			return nil, fmt.Errorf("%w: recipe %q has no steps", ErrAnalysisFailed, recipe.Title)
		}
	}

	return &result, nil
}

// EstimateTotalCost asks the model for a USD total for the shopping list.
// The empty-list short circuit and the per-item fallback live in the caller.
func (s *GeminiService) EstimateTotalCost(ctx context.Context, items []models.ShoppingListItem) (float64, error) {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s of %s", item.Amount, item.Name))
	}
	prompt := fmt.Sprintf("Estimate the total price in USD for these groceries: %s. Provide ONLY the numerical sum.", strings.Join(lines, ", "))

	resp, err := s.client.Models.GenerateContent(ctx, costModel,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"estimatedTotal": {Type: genai.TypeNumber},
				},
				Required: []string{"estimatedTotal"},
			},
		})
	if err != nil {
		return 0, err
	}

	var data struct {
		EstimatedTotal float64 `json:"estimatedTotal"`
	}
	if err := json.Unmarshal([]byte(resp.Text()), &data); err != nil {
		return 0, fmt.Errorf("decoding cost response: %w", err)
	}

	return data.EstimatedTotal, nil
}

// GenerateRecipeImage renders one illustrative photo for a recipe card.
// Returns the raw image bytes and their mime type. No retry on failure.
func (s *GeminiService) GenerateRecipeImage(ctx context.Context, prompt string) ([]byte, string, error) {
	styled := fmt.Sprintf("Professional gourmet food photography of: %s. Close up, soft lighting, 8k resolution, appetizing, masterchef style.", prompt)

	resp, err := s.client.Models.GenerateContent(ctx, imageModel,
		[]*genai.Content{genai.NewContentFromText(styled, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: "4:3"},
		})
	if err != nil {
		return nil, "", err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
		}
	}

	return nil, "", ErrNoImageData
}

// SynthesizeStepSpeech converts one cooking step into audio. One utterance
// is active at a time; the caller cancels the previous context on replace.
func (s *GeminiService) SynthesizeStepSpeech(ctx context.Context, text string) ([]byte, string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, speechModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: speechVoice},
				},
			},
		})
	if err != nil {
		return nil, "", err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
		}
	}

	return nil, "", ErrNoAudioData
}

// filterAllergens removes recipes containing any listed allergen, matched as
// a case-insensitive substring of the ingredient name
func filterAllergens(recipes []models.Recipe, allergies []string) []models.Recipe {
	if len(allergies) == 0 {
		return recipes
	}

	safe := make([]models.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		if !containsAllergen(recipe, allergies) {
			safe = append(safe, recipe)
		}
	}
	return safe
}

func containsAllergen(recipe models.Recipe, allergies []string) bool {
	for _, ing := range recipe.Ingredients {
		name := strings.ToLower(ing.Name)
		for _, allergen := range allergies {
			a := strings.ToLower(strings.TrimSpace(allergen))
			if a == "" {
				continue
			}
			// Match singular forms too: "peanuts" should catch "peanut butter"
			if strings.Contains(name, a) || strings.Contains(name, strings.TrimSuffix(a, "s")) {
				return true
			}
		}
	}
	return false
}
