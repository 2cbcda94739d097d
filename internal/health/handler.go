// Package health provides health check endpoint handler.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/prtracker/internal/database/database"
	"github.com/festy23/prtracker/internal/prkey"
	storageRepository "github.com/festy23/prtracker/internal/storage/repository"
)

const checkTimeout = 5 * time.Second

// Handler handles health check requests.
type Handler struct {
	area   storageRepository.Repository
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new health handler instance. db is nil for the memory driver.
func New(area storageRepository.Repository, db *gorm.DB, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		area:   area,
		db:     db,
		logger: logger,
	}
}

// Response represents health check response.
type Response struct {
	Status string `json:"status"`
}

// Check handles GET /health request.
// @Summary Report whether the storage area answers
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get] //nolint:godot
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	if err := h.check(ctx); err != nil {
		h.logger.Warnw("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, Response{Status: "unhealthy"})
		return
	}

	c.JSON(http.StatusOK, Response{Status: "ok"})
}

func (h *Handler) check(ctx context.Context) error {
	if h.db != nil {
		if err := database.HealthCheck(ctx, h.db); err != nil {
			return err
		}
	}
	_, err := h.area.Get(ctx, prkey.CacheKey)
	return err
}

// RegisterRoutes registers the health route.
func RegisterRoutes(r gin.IRouter, h *Handler) {
	r.GET("/health", h.Check)
}
