package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"puritygrid-backend/config"
	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig, sessions mw.SessionLookup, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(log), mw.CORS(cfg.AllowedOrigins))

	// Rate limit per client with a burst of half a second's worth, at least 5.
	burst := max(5, int(cfg.RateLimitPerSec/2))
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), burst, mw.ClientKey(cfg.RequestIPHeader))

	// Fleet views change every poll, so cached responses live only seconds.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 10*time.Minute), ttl)

	r.GET("/healthz", h.GetHealth)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.Authenticate(sessions))
	{
		api.POST("/session", h.PostSession)
		api.GET("/session", mw.RequireSession(), h.GetSession)
		api.DELETE("/session", mw.RequireSession(), h.DeleteSession)

		fleet := api.Group("", mw.RequireSession())
		fleet.GET("/fleet", caching, h.GetFleet)
		fleet.GET("/fleet/stats", caching, h.GetFleetStats)
		fleet.GET("/fleet/alerts", caching, h.GetFleetAlerts)
		fleet.GET("/devices/:device_id/history", caching, h.GetDeviceHistory)
		fleet.GET("/requests", h.GetRequests)

		api.GET("/earnings", mw.RequireRole(model.RoleOwner), caching, h.GetEarnings)
		api.POST("/requests", mw.RequireRole(model.RoleRenter), h.PostRequest)
		api.PUT("/requests/:id", mw.RequireRole(model.RoleOwner), h.PutRequest)

		fleet.GET("/subscriptions", h.GetSubscription)
		fleet.PUT("/subscriptions", h.PutSubscription)
		fleet.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
