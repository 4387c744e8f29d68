package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alert-registry/internal/config"
	"alert-registry/internal/logging"
	"alert-registry/internal/observability"
)

func NewRouter(h *Handler, hub *Hub, logger *logging.Logger, metrics *observability.Metrics, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLoggingMiddleware(logger))
	r.Use(Metrics(metrics))
	r.Use(CORS(cfg.API.AllowedOrigins))

	api := r.Group(cfg.API.BasePath)
	{
		api.GET("/", h.Root)
		api.GET("/health", h.Health)
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))

		// Alerts
		api.GET("/alerts", h.ListAlerts)
		api.POST("/alerts", h.CreateAlert)
		api.GET("/alerts/nearby", h.NearbyAlerts)
		api.GET("/alerts/stream", hub.Stream)
		api.GET("/alerts/:id", h.GetAlert)
		api.DELETE("/alerts/:id", h.DeleteAlert)
	}
	return r
}
