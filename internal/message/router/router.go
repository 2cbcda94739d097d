// Package router provides message module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/message/handler"
	"github.com/festy23/prtracker/internal/message/service"
)

// RegisterRoutes registers message module routes.
func RegisterRoutes(r gin.IRouter, svc service.Service, logger *zap.SugaredLogger) {
	h := handler.New(svc, logger)

	r.POST("/message", h.Message)
}
