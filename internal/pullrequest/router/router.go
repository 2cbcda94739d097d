// Package router provides pullrequest module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/pullrequest/handler"
	"github.com/festy23/prtracker/internal/pullrequest/service"
)

// RegisterRoutes registers pullrequest module routes.
func RegisterRoutes(r gin.IRouter, svc service.Service, logger *zap.SugaredLogger) {
	h := handler.New(svc, logger)

	r.GET("/pullRequests", h.List)
	r.GET("/pullRequests/:key", h.Get)
	r.DELETE("/pullRequests/:key", h.Delete)
}
