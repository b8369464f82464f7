package routes

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"launchpad/internal/feed"
	"launchpad/internal/handlers"
	"launchpad/internal/middleware"
)

// Dependencies are the handlers the router serves.
type Dependencies struct {
	Curves      *handlers.TokenCurveHandler
	Feed        *feed.Hub
	TradeLimits *middleware.RateLimiter
}

// AllowedOrigins parses ALLOWED_ORIGINS.
// Format: comma-separated list, e.g., "http://localhost:3000,http://localhost:3001"
func AllowedOrigins() []string {
	var allowedOrigins []string
	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		trimmed := strings.TrimSpace(o)
		if trimmed != "" {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}
	return allowedOrigins
}

func originAllowed(origin string, allowedOrigins []string) bool {
	for _, allowedOrigin := range allowedOrigins {
		if origin == allowedOrigin {
			return true
		}
	}
	return false
}

// CheckOrigin accepts websocket upgrades from allowed origins and from non-browser
// clients that send no Origin header.
func CheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || originAllowed(origin, allowedOrigins)
	}
}

func cors(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if originAllowed(origin, allowedOrigins) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		// Handle preflight requests
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SetupRouter initializes and returns the Gin router with all routes configured
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()

	r.Any("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})

	r.Use(cors(AllowedOrigins()))

	SetupTokenCurveRoutes(r, deps.Curves, deps.TradeLimits)
	if deps.Feed != nil {
		r.GET("/ws/trades", gin.WrapF(deps.Feed.ServeWS))
	}

	return r
}
