package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"safebrowse/internal/gate"
	"safebrowse/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type navigateRequest struct {
	Input string              `json:"input"`
	Kind  models.ActivityKind `json:"kind"`
}

// Navigate evaluates a search or visit for the caller's session
func (h *Handler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Kind == "" {
		req.Kind = models.KindSearch
	}

	res, err := h.browser.Navigate(c.Request.Context(), c.GetHeader(SessionHeader), req.Input, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, gate.ErrEmptyInput), errors.Is(err, gate.ErrInvalidKind):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, gate.ErrBusy), errors.Is(err, gate.ErrSuperseded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, context.Canceled):
			// Client went away; nothing to write.
			c.Abort()
		default:
			h.logger.Error("Failed to navigate", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "navigation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}

// NavigationState returns the current gate state of the caller's session
func (h *Handler) NavigationState(c *gin.Context) {
	c.JSON(http.StatusOK, h.browser.NavigationState(c.GetHeader(SessionHeader)))
}

// StreamNavigation pushes gate states of the caller's session as SSE
func (h *Handler) StreamNavigation(c *gin.Context) {
	sessionID := c.GetHeader(SessionHeader)
	if sessionID == "" {
		sessionID = c.Query("session")
	}

	states, unsubscribe := h.browser.SubscribeNavigation(sessionID)
	defer unsubscribe()

	setSSEHeaders(c)
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case st, ok := <-states:
			if !ok {
				return false
			}
			c.SSEvent("state", st)
			return true
		}
	})
}

type themeRequest struct {
	Theme models.Theme `json:"theme"`
}

// SetTheme changes the browser theme; an empty theme cycles to the next one
func (h *Handler) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.browser.SetTheme(req.Theme)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"theme": s.Theme})
}
