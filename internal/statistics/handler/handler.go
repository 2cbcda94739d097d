// Package handler provides HTTP handlers for statistics endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/apierror"
	"github.com/festy23/prtracker/internal/statistics/service"
)

// Handler handles HTTP requests for statistics endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new statistics handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// GetRepositoriesStatistics handles GET /statistics/repositories request.
// @Summary Get tracked pull request statistics per repository
// @Tags Statistics
// @Produce json
// @Success 200 {object} model.RepositoriesStatisticsResponse
// @Failure 500 {object} apierror.Body
// @Router /statistics/repositories [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetRepositoriesStatistics(c *gin.Context) {
	resp, err := h.service.GetRepositoriesStatistics(c.Request.Context())
	if err != nil {
		h.logger.Errorw("error getting repositories statistics", "error", err)
		apierror.Internal(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetPullRequestStatistics handles GET /statistics/pullrequests request.
// @Summary Get statistics for tracked pull requests
// @Tags Statistics
// @Produce json
// @Success 200 {object} model.PullRequestStatisticsResponse
// @Failure 500 {object} apierror.Body
// @Router /statistics/pullrequests [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) GetPullRequestStatistics(c *gin.Context) {
	resp, err := h.service.GetPullRequestStatistics(c.Request.Context())
	if err != nil {
		h.logger.Errorw("error getting pull request statistics", "error", err)
		apierror.Internal(c)
		return
	}

	c.JSON(http.StatusOK, resp)
}
