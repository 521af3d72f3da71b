package handlers

import (
	"bytes"
	"errors"
	"io"
	"log"
	"path"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/healbites/healbites/internal/database"
	"github.com/healbites/healbites/internal/middleware"
	"github.com/healbites/healbites/internal/models"
	"github.com/healbites/healbites/internal/services"
	"github.com/healbites/healbites/internal/state"
)

// ScanFridge accepts a fridge photo, runs the analysis against the user's
// current preferences, and on success lands the user on the recipe list.
// The previous recipe set and its generated card images are discarded first.
func (h *Handler) ScanFridge(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	// Get the uploaded file
	file, err := c.FormFile("image")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "image file is required")
	}

	// Validate file type
	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return Error(c, fiber.StatusBadRequest, "invalid image type. Supported: JPEG, PNG, WebP")
	}

	// Validate file size (max 10MB)
	if file.Size > 10*1024*1024 {
		return Error(c, fiber.StatusBadRequest, "file too large. Maximum size is 10MB")
	}

	current := h.ensureState(userID)
	if current.View != state.ViewScan && current.View != state.ViewHome {
		return Error(c, fiber.StatusConflict, "scanning is only available from the home or scan view")
	}

	src, err := file.Open()
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}
	defer src.Close()

	imageBytes, err := io.ReadAll(src)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}

	h.dropImageCache(userID)
	h.store.Update(userID, func(s state.AppState) state.AppState {
		s.View = state.ViewScan
		s.IsLoading = true
		s.Recipes = nil
		s.SelectedRecipe = nil
		s.CookingStep = 0
		s.IngredientsFound = nil
		return s
	}, state.EventViewChanged)

	handle := h.tracker.Issue(userID, state.ViewScan)

	result, err := h.gateway.AnalyzeFridgeImage(handle.Context(), imageBytes, contentType,
		current.Servings, current.AgeGroup, current.Allergies)
	if err != nil || !handle.Live() {
		// Analysis failures leave the user on the scan view to retry
		h.store.Update(userID, func(s state.AppState) state.AppState {
			s.IsLoading = false
			return s
		})
		if !handle.Live() {
			return Error(c, fiber.StatusConflict, "scan cancelled")
		}
		log.Printf("Warning: fridge analysis failed for user %d: %v", userID, err)
		return Error(c, fiber.StatusBadGateway, "analysis failed, please try again")
	}

	// Archive the original image when storage is configured; the scan result
	// does not depend on archival succeeding
	if h.archive != nil {
		key := services.ScanKey(userID, file.Filename)
		if err := h.archive.Archive(c.Context(), key, bytes.NewReader(imageBytes), file.Size, contentType); err != nil {
			log.Printf("Warning: failed to archive scan image for user %d: %v", userID, err)
		} else {
			scan := &models.FridgeScan{
				ID:          uuid.New().String(),
				UserID:      userID,
				ObjectKey:   key,
				Ingredients: result.Ingredients,
			}
			if err := h.db.CreateFridgeScan(c.Context(), scan); err != nil {
				log.Printf("Warning: failed to record scan for user %d: %v", userID, err)
			}
		}
	}

	next, err := h.store.Update(userID, func(s state.AppState) state.AppState {
		s.View = state.ViewRecipeList
		s.IsLoading = false
		s.IngredientsFound = result.Ingredients
		s.Recipes = result.Recipes
		return s
	}, state.EventViewChanged)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to update state")
	}

	return Success(c, fiber.Map{
		"ingredients": next.IngredientsFound,
		"recipes":     next.Recipes,
		"view":        next.View,
	})
}

// GetScanHistory returns the user's archived scans, newest first
func (h *Handler) GetScanHistory(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	scans, err := h.db.ListFridgeScans(c.Context(), userID, limit)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get scan history")
	}
	if scans == nil {
		scans = []models.FridgeScan{}
	}

	return Success(c, scans)
}

// GetScanImage streams the archived image for one of the user's scans
func (h *Handler) GetScanImage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if h.archive == nil {
		return Error(c, fiber.StatusServiceUnavailable, "scan archive not configured")
	}

	scan, err := h.db.GetFridgeScan(c.Context(), userID, c.Params("id"))
	if err != nil {
		if errors.Is(err, database.ErrScanNotFound) {
			return Error(c, fiber.StatusNotFound, "scan not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get scan")
	}

	obj, err := h.archive.Fetch(c.Context(), scan.ObjectKey)
	if err != nil {
		log.Printf("Warning: failed to fetch scan image %s: %v", scan.ObjectKey, err)
		return Error(c, fiber.StatusBadGateway, "failed to fetch scan image")
	}
	defer obj.Close()

	c.Set(fiber.HeaderContentType, scanImageContentType(scan.ObjectKey))
	return c.SendStream(obj)
}

// DeleteScan removes a scan record and its archived image
func (h *Handler) DeleteScan(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	objectKey, err := h.db.DeleteFridgeScan(c.Context(), userID, c.Params("id"))
	if err != nil {
		if errors.Is(err, database.ErrScanNotFound) {
			return Error(c, fiber.StatusNotFound, "scan not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete scan")
	}

	// Drop the archived image; log and continue if storage refuses
	if h.archive != nil {
		if err := h.archive.Delete(c.Context(), objectKey); err != nil {
			log.Printf("Warning: failed to delete scan image %s: %v", objectKey, err)
		}
	}

	return Success(c, fiber.Map{"deleted": true})
}

// scanImageContentType maps an object key's extension to a mime type
func scanImageContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// isValidImageType checks if the content type is a valid image
func isValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
	}

	for _, t := range validTypes {
		if strings.EqualFold(contentType, t) {
			return true
		}
	}
	return false
}
