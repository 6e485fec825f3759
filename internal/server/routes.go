package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/dexs", h.ListDexs)
	v1.GET("/dexs/:dex/fees", h.DexFees)
	v1.POST("/quote", h.Quote)

	// Live pool reads hit the ledger provider, so they share a limiter
	pools := v1.Group("/pools")
	pools.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(1), // 1 request per second
		Burst:     5,
		ExpiresIn: 2 * time.Minute,
	})))
	pools.GET("", h.Pools)
	pools.POST("/state", h.PoolState)
	pools.POST("/history", h.PoolHistory)

	// Cached snapshots are cheap and unlimited
	cached := v1.Group("/cached/pools")
	cached.GET("", h.CachedPools)
	cached.GET("/*", h.CachedPool)

	// Order construction
	orders := v1.Group("/orders")
	orders.POST("/swap", h.SwapOrder)
	orders.POST("/cancel", h.CancelOrder)

	// Runtime adapter switches
	fl := v1.Group("/flags")
	fl.GET("", h.FlagsList)
	fl.GET("/:key", h.FlagsGet)
	fl.PUT("/:key", h.FlagsUpdate)
	fl.DELETE("/:key", h.FlagsDelete)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
