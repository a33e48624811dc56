package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jvibeschool/chefcard/internal/service"
)

// AuthHandler handles login and quota endpoints.
type AuthHandler struct {
	usage *service.UsageService
}

// NewAuthHandler creates a new auth handler.
// Parameters:
//   - usage: quota service backing the endpoints.
//
// Returns:
//   - *AuthHandler: initialized handler.
func NewAuthHandler(usage *service.UsageService) *AuthHandler {
	return &AuthHandler{usage: usage}
}

// loginBody is the wire shape of a login request. Identity comes from the
// frontend's OAuth flow; the API trusts the email it is handed.
type loginBody struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Login handles POST /api/v1/auth/login.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}
	if body.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Email is required",
		})
		return
	}

	result, err := h.usage.Login(c.Request.Context(), body.Email, body.Name, body.Picture)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Login failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// checkBody is the wire shape of a quota check.
type checkBody struct {
	Email string `json:"email"`
}

// CheckUsage handles POST /api/v1/auth/check.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AuthHandler) CheckUsage(c *gin.Context) {
	var body checkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}
	if body.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Email is required",
		})
		return
	}

	status, err := h.usage.Check(c.Request.Context(), body.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check usage: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// incrementBody is the wire shape of a manual usage increment.
type incrementBody struct {
	Email string `json:"email"`
}

// IncrementUsage handles POST /api/v1/auth/increment. Exposed for clients
// that meter generation themselves; the generate endpoint already consumes
// quota on its own.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AuthHandler) IncrementUsage(c *gin.Context) {
	var body incrementBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Email is required",
		})
		return
	}

	status, err := h.usage.Increment(c.Request.Context(), body.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to record usage: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// Status handles GET /api/v1/auth/status.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AuthHandler) Status(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Email is required",
		})
		return
	}

	status, err := h.usage.Status(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load status: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}
