package handler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"safebrowse/internal/models"
	"safebrowse/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetActivities returns the most recent activities, newest last
func (h *Handler) GetActivities(c *gin.Context) {
	activities, err := h.browser.Activities(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to get activities", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get activities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"total":      len(activities),
	})
}

// GetActivity returns a single activity
func (h *Handler) GetActivity(c *gin.Context) {
	activity, err := h.browser.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
			return
		}
		h.logger.Error("Failed to get activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get activity"})
		return
	}

	c.JSON(http.StatusOK, activity)
}

// GetAlerts returns the most recent alert logs, newest last
func (h *Handler) GetAlerts(c *gin.Context) {
	alerts, err := h.browser.Alerts(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to get alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"total":  len(alerts),
	})
}

// TriggerTestAlert raises the synthetic SMS test alert
func (h *Handler) TriggerTestAlert(c *gin.Context) {
	c.JSON(http.StatusAccepted, h.browser.TriggerTestAlert())
}

// GetStats returns dashboard statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.browser.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetSettings returns the current alert settings
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.browser.Settings())
}

// UpdateSettings replaces the alert settings wholesale
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req models.AlertSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.browser.UpdateSettings(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.browser.Settings())
}

// ExportCSV exports recent activities to CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	activities, err := h.browser.Activities(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=activities.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"id", "timestamp", "type", "content", "risk_level", "sophistication", "status", "verified", "reason"})
	for _, a := range activities {
		writer.Write([]string{
			a.ID,
			a.Timestamp.UTC().Format(time.RFC3339),
			string(a.Kind),
			a.Content,
			string(a.RiskLevel),
			string(a.Sophistication),
			string(a.Status),
			strconv.FormatBool(a.Verified),
			a.Reason,
		})
	}
}

// ExportJSON exports recent activities to JSON
func (h *Handler) ExportJSON(c *gin.Context) {
	activities, err := h.browser.Activities(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to export JSON", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename=activities.json")

	encoder := json.NewEncoder(c.Writer)
	encoder.SetIndent("", "  ")
	encoder.Encode(activities)
}
