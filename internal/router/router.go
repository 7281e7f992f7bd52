package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pantryshare/backend/internal/api"
	"github.com/pantryshare/backend/internal/middleware"
)

// SetupRouter configures the application routes. Reads sit behind
// optional auth so anonymous callers get projections without viewer
// flags; writes require a validated identity.
func SetupRouter(
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	catalogHandler *api.CatalogHandler,
	recipeHandler *api.RecipeHandler,
	validator middleware.TokenValidator,
	createLimiter *middleware.RateLimiter,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS(allowedOrigins))

	v1 := router.Group("/api/v1")

	public := v1.Group("")
	public.Use(middleware.OptionalAuth(validator))

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(validator))

	authHandler.RegisterRoutes(v1, protected)
	userHandler.RegisterRoutes(public, protected)
	catalogHandler.RegisterRoutes(public)

	var limiterFunc gin.HandlerFunc
	if createLimiter != nil {
		limiterFunc = createLimiter.Middleware()
	}
	recipeHandler.RegisterRoutes(public, protected, limiterFunc)

	return router
}
