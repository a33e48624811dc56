package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jvibeschool/chefcard/internal/api/middleware"
	"github.com/jvibeschool/chefcard/internal/domain"
	"github.com/jvibeschool/chefcard/internal/service"
)

// GenerateHandler handles recipe card generation.
type GenerateHandler struct {
	generator *service.GeneratorService
	usage     *service.UsageService
}

// NewGenerateHandler creates a new generate handler.
// Parameters:
//   - generator: card generation pipeline.
//   - usage: quota service gating generation.
//
// Returns:
//   - *GenerateHandler: initialized handler.
func NewGenerateHandler(generator *service.GeneratorService, usage *service.UsageService) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		usage:     usage,
	}
}

// generateBody is the wire shape of a generation order.
type generateBody struct {
	Dish       string `json:"dish"`
	Style      string `json:"style"`
	Ratio      string `json:"ratio"`
	Layout     string `json:"layout"`
	Language   string `json:"language"`
	RenderMode string `json:"render_mode"`
	KeyTier    string `json:"key_tier"`
	UserEmail  string `json:"user_email"`
}

// Generate handles POST /api/v1/generate.
// The quota is consumed before the pipeline runs, so failed and degraded
// attempts count against the daily limit too.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *GenerateHandler) Generate(c *gin.Context) {
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}
	if body.UserEmail == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Login required",
		})
		return
	}

	ctx := c.Request.Context()

	quota, err := h.usage.Check(ctx, body.UserEmail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check usage: " + err.Error(),
		})
		return
	}
	if !quota.CanUse {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Daily generation limit reached",
			"quota": quota,
		})
		return
	}

	quota, err = h.usage.Increment(ctx, body.UserEmail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record usage: " + err.Error(),
		})
		return
	}

	result, err := h.generator.Generate(ctx, service.GenerateRequest{
		Dish:       body.Dish,
		Style:      body.Style,
		Ratio:      body.Ratio,
		Layout:     body.Layout,
		Language:   body.Language,
		RenderMode: domain.RenderMode(body.RenderMode),
		KeyTier:    domain.KeyTier(body.KeyTier),
		CreatedBy:  body.UserEmail,
	})
	if err != nil {
		status, msg := generateErrorResponse(err)
		middleware.GetLogger(c).WithError(err).Error("generation failed")
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe":     result.Recipe,
		"degraded":   result.Degraded,
		"diagnostic": result.Diagnostic,
		"quota":      quota,
	})
}

// generateErrorResponse maps pipeline errors to HTTP responses.
func generateErrorResponse(err error) (int, string) {
	var textErr *service.TextGenerationError
	var persErr *service.PersistenceError
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &textErr):
		return http.StatusBadGateway, "Recipe generation failed: " + textErr.Message
	case errors.As(err, &persErr):
		return http.StatusInternalServerError, "Failed to save recipe"
	default:
		return http.StatusInternalServerError, "Generation failed: " + err.Error()
	}
}
