package api

import (
	"city-insights/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(ctrl *Controller, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), CORS(), AccessLog(log), Metrics())

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/visualizations", ctrl.Visualizations)
		apiGroup.POST("/comparison", ctrl.Comparison)
		apiGroup.POST("/chatgpt-analysis", ctrl.Analysis)
		apiGroup.POST("/chat-response", ctrl.ChatResponse)
		apiGroup.GET("/health", ctrl.Health)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
