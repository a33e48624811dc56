package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jvibeschool/chefcard/internal/api/handler"
	"github.com/jvibeschool/chefcard/internal/api/middleware"
	"github.com/jvibeschool/chefcard/internal/config"
	"github.com/jvibeschool/chefcard/internal/logger"
	"github.com/jvibeschool/chefcard/internal/repository"
	"github.com/jvibeschool/chefcard/internal/service"
	"github.com/jvibeschool/chefcard/internal/storage"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	generator *service.GeneratorService,
	usage *service.UsageService,
	recipes *repository.RecipeRepository,
	store storage.ObjectStorage,
	cfg *config.Config,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	generateHandler := handler.NewGenerateHandler(generator, usage)
	recipeHandler := handler.NewRecipeHandler(recipes, usage, store)
	authHandler := handler.NewAuthHandler(usage)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Generation
		v1.POST("/generate", generateHandler.Generate)

		// Gallery
		v1.GET("/recipes", recipeHandler.ListRecipes)
		v1.GET("/recipes/:id", recipeHandler.GetRecipe)
		v1.POST("/recipes/:id/like", recipeHandler.LikeRecipe)
		v1.PUT("/recipes/:id/positions", recipeHandler.UpdatePositions)
		v1.DELETE("/recipes/:id", recipeHandler.DeleteRecipe)

		// Auth and quota
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/check", authHandler.CheckUsage)
		v1.POST("/auth/increment", authHandler.IncrementUsage)
		v1.GET("/auth/status", authHandler.Status)

		// Stats
		v1.GET("/stats", recipeHandler.Stats)
	}

	return r
}
