package handler

import (
	"io"
	"net/http"

	"safebrowse/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// StreamCollection sends the last records of a collection, then every new
// append, as server-sent events.
func (h *Handler) StreamCollection(c *gin.Context) {
	collection, err := repository.ParseCollection(c.Param("collection"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.browser.Subscribe(c.Request.Context(), collection, queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to subscribe", zap.String("collection", string(collection)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}

	setSSEHeaders(c)
	c.Stream(func(w io.Writer) bool {
		rec, ok := <-records
		if !ok {
			return false
		}
		c.SSEvent(string(collection), rec)
		return true
	})
}
