// Package router provides statistics module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/statistics/handler"
	"github.com/festy23/prtracker/internal/statistics/service"
)

// RegisterRoutes registers statistics module routes.
func RegisterRoutes(r gin.IRouter, prs service.Lister, logger *zap.SugaredLogger) {
	svc := service.New(prs, logger)
	h := handler.New(svc, logger)

	r.GET("/statistics/repositories", h.GetRepositoriesStatistics)
	r.GET("/statistics/pullrequests", h.GetPullRequestStatistics)
}
