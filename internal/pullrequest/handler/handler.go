// Package handler provides read-only HTTP views over tracked pull requests.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/apierror"
	"github.com/festy23/prtracker/internal/prkey"
	pullrequestModel "github.com/festy23/prtracker/internal/pullrequest/model"
	"github.com/festy23/prtracker/internal/pullrequest/service"
)

// ListResponse holds every tracked pull request keyed by canonical key.
type ListResponse struct {
	PullRequests map[string]pullrequestModel.MergedView `json:"pullRequests"`
}

// DetailResponse holds the record and counters of one pull request.
type DetailResponse struct {
	Key    string                   `json:"key"`
	Stats  *pullrequestModel.Stats  `json:"stats"`
	Record *pullrequestModel.Record `json:"record"`
}

// Handler handles HTTP requests for pull request endpoints.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new pullrequest handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// List handles GET /pullRequests request.
// @Summary List tracked pull requests merged with their counters
// @Tags PullRequests
// @Produce json
// @Success 200 {object} ListResponse
// @Failure 500 {object} apierror.Body "Internal server error"
// @Router /pullRequests [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) List(c *gin.Context) {
	views, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to list pull requests", "error", err)
		apierror.Internal(c)
		return
	}

	c.JSON(http.StatusOK, ListResponse{PullRequests: views})
}

// Get handles GET /pullRequests/:key request.
// @Summary Get the record and counters of one pull request
// @Tags PullRequests
// @Produce json
// @Param key path string true "Canonical key, pr-<number>"
// @Success 200 {object} DetailResponse
// @Failure 400 {object} apierror.Body "Bad request (INVALID_KEY)"
// @Failure 500 {object} apierror.Body "Internal server error"
// @Router /pullRequests/{key} [get] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) Get(c *gin.Context) {
	key, err := prkey.Validate(c.Param("key"))
	if err != nil {
		apierror.Write(c, http.StatusBadRequest, apierror.CodeInvalidKey, "key must look like pr-<number>")
		return
	}

	ctx := c.Request.Context()
	stats, err := h.service.GetStats(ctx, key)
	if err != nil {
		h.logger.Errorw("failed to get stats", "key", key, "error", err)
		apierror.Internal(c)
		return
	}
	record, err := h.service.GetRecord(ctx, key)
	if err != nil {
		h.logger.Errorw("failed to get record", "key", key, "error", err)
		apierror.Internal(c)
		return
	}

	c.JSON(http.StatusOK, DetailResponse{Key: key.String(), Stats: stats, Record: record})
}

// Delete handles DELETE /pullRequests/:key request.
// @Summary Stop tracking a pull request
// @Tags PullRequests
// @Param key path string true "Canonical key, pr-<number>"
// @Success 204
// @Failure 400 {object} apierror.Body "Bad request (INVALID_KEY)"
// @Failure 500 {object} apierror.Body "Internal server error"
// @Router /pullRequests/{key} [delete] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) Delete(c *gin.Context) {
	key, err := prkey.Validate(c.Param("key"))
	if err != nil {
		apierror.Write(c, http.StatusBadRequest, apierror.CodeInvalidKey, "key must look like pr-<number>")
		return
	}

	if err := h.service.Remove(c.Request.Context(), key); err != nil {
		h.logger.Errorw("failed to remove pull request", "key", key, "error", err)
		apierror.Internal(c)
		return
	}

	c.Status(http.StatusNoContent)
}
