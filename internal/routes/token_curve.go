package routes

import (
	"github.com/gin-gonic/gin"

	"launchpad/internal/handlers"
	"launchpad/internal/middleware"
)

// SetupTokenCurveRoutes sets up all routes of the bonding curve market. Trade
// execution is rate limited per client IP when limiter is set.
func SetupTokenCurveRoutes(r *gin.Engine, h *handlers.TokenCurveHandler, limiter *middleware.RateLimiter) {
	trade := []gin.HandlerFunc{}
	if limiter != nil {
		trade = append(trade, limiter.Middleware())
	}

	curve := r.Group("/token-curve")
	{
		curve.GET("", h.ListTokenCurves)
		curve.POST("", h.CreateTokenCurve)
		curve.GET("/:address", h.GetTokenCurve)
		curve.GET("/:address/quote/buy", h.QuoteBuy)
		curve.GET("/:address/quote/sell", h.QuoteSell)
		curve.GET("/:address/quote/cost", h.QuoteCost)
		curve.GET("/:address/quote/dex", h.QuoteDex)
		curve.POST("/:address/buy", append(trade, h.Buy)...)
		curve.POST("/:address/sell", append(trade, h.Sell)...)
		curve.GET("/:address/trades", h.ListTrades)
		curve.GET("/:address/graduation", h.GetGraduation)
		curve.GET("/:address/holders/:trader", h.GetHolder)
	}
}
