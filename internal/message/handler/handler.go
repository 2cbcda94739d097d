// Package handler provides the HTTP endpoint of the message protocol.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prtracker/internal/apierror"
	messageModel "github.com/festy23/prtracker/internal/message/model"
	"github.com/festy23/prtracker/internal/message/service"
)

// Handler handles protocol messages sent over HTTP.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new message handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Message handles POST /message request.
// @Summary Dispatch one protocol message
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body messageModel.Request true "Request"
// @Success 200 {object} messageModel.Response "Protocol response; domain failures have success=false"
// @Failure 400 {object} apierror.Body "Bad request (INVALID_REQUEST)"
// @Router /message [post] //nolint:godot // Swagger annotation should not end with period
func (h *Handler) Message(c *gin.Context) {
	var req messageModel.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debugw("rejecting malformed message", "error", err)
		apierror.Write(c, http.StatusBadRequest, apierror.CodeInvalidRequest, "invalid request body")
		return
	}

	c.JSON(http.StatusOK, h.service.Handle(c.Request.Context(), &req))
}
