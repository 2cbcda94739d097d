// Package handler exposes the storage area to contexts running outside the service process.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/apierror"
	storageModel "github.com/festy23/prtracker/internal/storage/model"
	"github.com/festy23/prtracker/internal/storage/repository"
)

// ItemsResponse wraps a set of storage items.
type ItemsResponse struct {
	Items storageModel.Items `json:"items"`
}

// SetRequest is the body of PUT /storage.
type SetRequest struct {
	Items storageModel.Items `json:"items" binding:"required"`
}

// RemoveRequest is the body of DELETE /storage.
type RemoveRequest struct {
	Keys []string `json:"keys" binding:"required"`
}

// Handler handles HTTP requests for the storage area.
type Handler struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new storage handler instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Get handles GET /storage request.
// @Summary Read storage entries; without key parameters the whole namespace is returned
// @Tags Storage
// @Produce json
// @Param key query []string false "Keys to read"
// @Success 200 {object} ItemsResponse
// @Failure 500 {object} apierror.Body "Internal server error"
// @Router /storage [get] //nolint:godot
func (h *Handler) Get(c *gin.Context) {
	keys := c.QueryArray("key")

	var (
		items storageModel.Items
		err   error
	)
	if len(keys) == 0 {
		items, err = h.repo.GetAll(c.Request.Context())
	} else {
		items, err = h.repo.Get(c.Request.Context(), keys...)
	}
	if err != nil {
		h.logger.Errorw("failed to read storage", "keys", keys, "error", err)
		apierror.Internal(c)
		return
	}

	c.JSON(http.StatusOK, ItemsResponse{Items: items})
}

// Set handles PUT /storage request.
// @Summary Write storage entries
// @Tags Storage
// @Accept json
// @Produce json
// @Param request body SetRequest true "Request"
// @Success 204
// @Failure 400 {object} apierror.Body "Bad request (INVALID_REQUEST)"
// @Failure 500 {object} apierror.Body "Internal server error"
// @Router /storage [put] //nolint:godot
func (h *Handler) Set(c *gin.Context) {
	var req SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Write(c, http.StatusBadRequest, apierror.CodeInvalidRequest, "invalid request body")
		return
	}

	if err := h.repo.Set(c.Request.Context(), req.Items); err != nil {
		if errors.Is(err, storageModel.ErrEmptyKey) || errors.Is(err, storageModel.ErrInvalidValue) {
			apierror.Write(c, http.StatusBadRequest, apierror.CodeInvalidRequest, err.Error())
			return
		}
		h.logger.Errorw("failed to write storage", "count", len(req.Items), "error", err)
		apierror.Internal(c)
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove handles DELETE /storage request.
// @Summary Remove storage entries
// @Tags Storage
// @Accept json
// @Param request body RemoveRequest true "Request"
// @Success 204
// @Failure 400 {object} apierror.Body "Bad request (INVALID_REQUEST)"
// @Failure 500 {object} apierror.Body "Internal server error"
// @Router /storage [delete] //nolint:godot
func (h *Handler) Remove(c *gin.Context) {
	var req RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Write(c, http.StatusBadRequest, apierror.CodeInvalidRequest, "invalid request body")
		return
	}

	if err := h.repo.Remove(c.Request.Context(), req.Keys...); err != nil {
		h.logger.Errorw("failed to remove storage entries", "keys", req.Keys, "error", err)
		apierror.Internal(c)
		return
	}

	c.Status(http.StatusNoContent)
}
