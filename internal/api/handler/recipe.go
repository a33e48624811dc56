package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jvibeschool/chefcard/internal/api/middleware"
	"github.com/jvibeschool/chefcard/internal/domain"
	"github.com/jvibeschool/chefcard/internal/repository"
	"github.com/jvibeschool/chefcard/internal/service"
	"github.com/jvibeschool/chefcard/internal/storage"
	"gorm.io/gorm"
)

// defaultListLimit bounds the gallery page size.
const defaultListLimit = 20

// RecipeHandler handles gallery endpoints.
type RecipeHandler struct {
	recipes *repository.RecipeRepository
	usage   *service.UsageService
	store   storage.ObjectStorage
}

// NewRecipeHandler creates a new recipe handler.
// Parameters:
//   - recipes: recipe repository.
//   - usage: quota service, used here for the admin check.
//   - store: object storage holding card images.
//
// Returns:
//   - *RecipeHandler: initialized handler.
func NewRecipeHandler(recipes *repository.RecipeRepository, usage *service.UsageService, store storage.ObjectStorage) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		usage:   usage,
		store:   store,
	}
}

// ListRecipes handles GET /api/v1/recipes.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	search := c.Query("search")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}

	recipes, err := h.recipes.List(c.Request.Context(), search, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list recipes: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// GetRecipe handles GET /api/v1/recipes/:id.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Recipe not found",
		})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// LikeRecipe handles POST /api/v1/recipes/:id/like.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *RecipeHandler) LikeRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.recipes.Like(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to like recipe: " + err.Error(),
		})
		return
	}

	recipe, err := h.recipes.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load recipe: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"likes":   recipe.Likes,
	})
}

// positionsBody is the wire shape of a position update.
type positionsBody struct {
	Positions domain.TextPositionList `json:"positions"`
}

// UpdatePositions handles PUT /api/v1/recipes/:id/positions. The submitted
// order is stored verbatim; list position binds overlay entries to
// ingredient and step indexes at render time.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *RecipeHandler) UpdatePositions(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var body positionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := h.recipes.UpdatePositions(c.Request.Context(), id, body.Positions); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update positions: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteRecipe handles DELETE /api/v1/recipes/:id. Admin only. The database
// row is removed first; orphaned storage objects are cleaned up best-effort
// afterwards.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	email := c.Query("user_email")
	if !h.usage.IsAdmin(email) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Admin permission required",
		})
		return
	}

	id, ok := recipeID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	recipe, err := h.recipes.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}

	if err := h.recipes.Delete(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete recipe: " + err.Error(),
		})
		return
	}

	log := middleware.GetLogger(c)
	for _, url := range []string{recipe.ImageURL, recipe.ImageEmbeddedURL} {
		key, ok := h.store.KeyFromURL(url)
		if !ok {
			continue
		}
		if err := h.store.Delete(ctx, key); err != nil {
			log.WithError(err).WithField("key", key).Warn("failed to delete card image object")
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stats handles GET /api/v1/stats.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *RecipeHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.recipes.CountTotal(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count recipes: " + err.Error(),
		})
		return
	}
	today, err := h.recipes.CountToday(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count recipes: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_recipes": total,
		"today_recipes": today,
	})
}

// recipeID parses the :id path parameter, writing a 400 when it is not a
// positive integer.
func recipeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid recipe ID",
		})
		return 0, false
	}
	return uint(id), true
}
