package handler

import (
	"errors"
	"net/http"
	"strconv"

	"safebrowse/internal/auth"
	"safebrowse/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHeader carries the browser session id. Requests without it share
// the default session.
const SessionHeader = "X-Session-ID"

// Version is reported by the health check.
var Version = "dev"

// Handler handles HTTP requests
type Handler struct {
	browser *service.Browser
	auth    *auth.Service
	logger  *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(browser *service.Browser, authService *auth.Service, logger *zap.Logger) *Handler {
	return &Handler{
		browser: browser,
		auth:    authService,
		logger:  logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", h.Login)

		// Browser shell
		api.POST("/navigate", h.Navigate)
		api.GET("/navigate/state", h.NavigationState)
		api.GET("/navigate/stream", h.StreamNavigation)
		api.PUT("/theme", h.SetTheme)

		// Parental dashboard
		dash := api.Group("", auth.Middleware(h.auth, h.logger))
		{
			dash.GET("/activities", h.GetActivities)
			dash.GET("/activities/:id", h.GetActivity)
			dash.GET("/alerts", h.GetAlerts)
			dash.POST("/alerts/test", h.TriggerTestAlert)
			dash.GET("/stats", h.GetStats)
			dash.GET("/settings", h.GetSettings)
			dash.PUT("/settings", h.UpdateSettings)
			dash.GET("/stream/:collection", h.StreamCollection)

			dash.GET("/export/csv", h.ExportCSV)
			dash.GET("/export/json", h.ExportJSON)
		}
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// CORS allows the browser shell to be served from another origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SessionHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type loginRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// Login exchanges the parental PIN for a dashboard token
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, expiresAt, err := h.auth.Login(req.PIN)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPIN) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid pin"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "safebrowse",
		"version": Version,
	})
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}
