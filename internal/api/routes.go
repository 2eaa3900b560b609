package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP router. A nil gatherer leaves /metrics out.
func NewRouter(h *SPCHandler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/confidence-levels", h.ConfidenceLevels)

	sessions := api.Group("/sessions")
	sessions.POST("", h.OpenSession)
	sessions.GET("", h.ListSessions)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.CloseSession)
	// stored logs outlive the in-memory session
	sessions.GET("/:id/stored-log", h.StoredLog)

	open := sessions.Group("/:id", RequireSession(h.service))
	open.GET("/summary", h.Summary)
	open.GET("/statistics", h.Statistics)
	open.GET("/normality", h.Normality)
	open.POST("/limits", h.ComputeLimits)
	open.POST("/eliminations", h.Eliminate)
	open.POST("/auto-eliminations", h.AutoEliminate)
	open.POST("/reset", h.Reset)
	open.GET("/log", h.Log)

	return r
}
