package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rawstudio/ticketbot/internal/handler"
)

// New builds the webhook HTTP surface: the health probe, the Prometheus
// endpoint, and the package-selection callback.
func New(selection *handler.SelectionHandler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/webhook/package-selection", selection.PackageSelection)

	return r
}
