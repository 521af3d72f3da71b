package handlers

import (
	"context"
	gosync "sync"

	"github.com/gofiber/fiber/v2"

	"github.com/healbites/healbites/internal/config"
	"github.com/healbites/healbites/internal/database"
	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/services"
	"github.com/healbites/healbites/internal/state"
	"github.com/healbites/healbites/internal/sync"
)

// AIGateway is the generative surface the handlers depend on
type AIGateway interface {
	AnalyzeFridgeImage(ctx context.Context, image []byte, mimeType string, servings int, ageGroup models.AgeGroup, allergies []string) (*models.ScanResult, error)
	GenerateRecipeImage(ctx context.Context, prompt string) ([]byte, string, error)
	SynthesizeStepSpeech(ctx context.Context, text string) ([]byte, string, error)
}

// StoreLocator finds supermarkets near a position
type StoreLocator interface {
	FindNearbySupermarkets(ctx context.Context, lat, lng float64) ([]models.NearbyStore, error)
}

// Handler holds all handler dependencies
type Handler struct {
	db      *database.DB
	cfg     *config.Config
	store   *state.Store
	engine  *sync.Engine
	gateway AIGateway
	locator StoreLocator
	archive *services.ScanArchive // nil when S3 is not configured
	tracker *state.RequestTracker

	// one generated image per recipe card per recipe-list mount
	imagesMu gosync.Mutex
	images   map[imageKey]cachedImage

	// one utterance active at a time per user
	speechMu gosync.Mutex
	speech   map[int]*speechSession
}

type speechSession struct {
	cancel context.CancelFunc
}

type imageKey struct {
	userID   int
	recipeID string
}

type cachedImage struct {
	data []byte
	mime string
}

// New creates a new Handler instance
func New(db *database.DB, cfg *config.Config, store *state.Store, engine *sync.Engine, gateway AIGateway, locator StoreLocator, archive *services.ScanArchive) *Handler {
	return &Handler{
		db:      db,
		cfg:     cfg,
		store:   store,
		engine:  engine,
		gateway: gateway,
		locator: locator,
		archive: archive,
		tracker: state.NewRequestTracker(),
		images:  make(map[imageKey]cachedImage),
		speech:  make(map[int]*speechSession),
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// ensureState returns the user's app state, creating and hydrating it on the
// first authenticated request of a session
func (h *Handler) ensureState(userID int) state.AppState {
	if s, err := h.store.Get(userID); err == nil {
		return s
	}
	return h.store.Begin(userID)
}

// dropImageCache clears cached recipe card images for the user, used when a
// new scan replaces the recipe set or the user leaves the recipe flow
func (h *Handler) dropImageCache(userID int) {
	h.imagesMu.Lock()
	for k := range h.images {
		if k.userID == userID {
			delete(h.images, k)
		}
	}
	h.imagesMu.Unlock()
}

// cancelSpeech stops any in-flight speech synthesis for the user
func (h *Handler) cancelSpeech(userID int) {
	h.speechMu.Lock()
	if sess, ok := h.speech[userID]; ok {
		sess.cancel()
		delete(h.speech, userID)
	}
	h.speechMu.Unlock()
}
