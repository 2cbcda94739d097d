package broadcast

import (
	"io"

	"github.com/gin-gonic/gin"
)

// Handler streams change events as server-sent events.
type Handler struct {
	broadcaster *Broadcaster
}

// NewHandler creates a new broadcast handler instance.
func NewHandler(b *Broadcaster) *Handler {
	return &Handler{broadcaster: b}
}

// Events handles GET /events request.
// @Summary Stream change events until the client disconnects
// @Tags Events
// @Produce text/event-stream
// @Success 200 {object} Event
// @Router /events [get] //nolint:godot
func (h *Handler) Events(c *gin.Context) {
	events, unsubscribe := h.broadcaster.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Event, ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// RegisterRoutes registers the event stream route.
func RegisterRoutes(r gin.IRouter, b *Broadcaster) {
	h := NewHandler(b)
	r.GET("/events", h.Events)
}
