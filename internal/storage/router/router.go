// Package router provides storage module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/storage/handler"
	"github.com/festy23/prtracker/internal/storage/repository"
)

// RegisterRoutes registers storage module routes.
func RegisterRoutes(r gin.IRouter, repo repository.Repository, logger *zap.SugaredLogger) {
	h := handler.New(repo, logger)

	r.GET("/storage", h.Get)
	r.PUT("/storage", h.Set)
	r.DELETE("/storage", h.Remove)
}
