package api

import (
	"github.com/gin-gonic/gin"

	"mdm-registry-backend/internal/mw"
)

// RouterDeps holds the middleware the router is assembled from. Nil
// entries are skipped.
type RouterDeps struct {
	RateLimiter *mw.IPRateLimiter
	Cache       *mw.ResponseCache
	Logger      mw.Logger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Logger != nil {
		r.Use(mw.RequestLogger(deps.Logger))
	}

	var caching gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	api := r.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}
	if deps.Cache != nil {
		api.Use(deps.Cache.Invalidate())
		caching = deps.Cache.Cache()
	}
	{
		api.GET("/devices", h.ListDevices)
		api.POST("/devices", h.EnrollDevice)
		api.GET("/devices/:id", h.GetDevice)
		api.PATCH("/devices/:id", h.UpdateDevice)
		api.DELETE("/devices/:id", h.UnenrollDevice)
		api.POST("/devices/:id/lock", h.LockDevice)
		api.POST("/devices/:id/unlock", h.UnlockDevice)
		api.POST("/devices/:id/wipe", h.WipeDevice)

		api.GET("/policies", h.ListPolicies)
		api.POST("/policies", h.AddPolicy)

		api.GET("/app-rules", h.ListAppRules)
		api.POST("/app-rules", h.AddAppRule)
		api.DELETE("/app-rules/:id", h.RemoveAppRule)

		api.GET("/alerts", h.ListAlerts)
		api.POST("/alerts", h.AddAlert)
		api.POST("/alerts/:id/ack", h.AcknowledgeAlert)

		api.GET("/activities", h.ListActivities)
		api.POST("/activities", h.AddActivity)

		api.GET("/statistics", caching, h.GetStatistics)

		api.GET("/export", h.Export)
		api.POST("/import", h.Import)
		api.POST("/reset", h.Reset)

		api.POST("/telemetry", h.PostTelemetry)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
