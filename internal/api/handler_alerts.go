package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/store"
)

type listAlertsQuery struct {
	Severity string `form:"severity" binding:"omitempty,oneof=low medium high critical"`
	Type     string `form:"type" binding:"omitempty,oneof=security policy app location"`
}

// ListAlerts handles GET /api/alerts. Alerts are returned newest first.
func (h *Handler) ListAlerts(c *gin.Context) {
	var q listAlertsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	alerts, err := h.registry.Alerts(c.Request.Context(), store.AlertFilter{
		Severity: model.Severity(q.Severity),
		Type:     model.AlertType(q.Type),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

type addAlertRequest struct {
	DeviceID   string     `json:"deviceId" binding:"required"`
	DeviceName string     `json:"deviceName"`
	Severity   string     `json:"severity" binding:"required,oneof=low medium high critical"`
	Type       string     `json:"type" binding:"required,oneof=security policy app location"`
	Message    string     `json:"message" binding:"required"`
	Timestamp  *time.Time `json:"timestamp"`
}

// AddAlert handles POST /api/alerts.
func (h *Handler) AddAlert(c *gin.Context) {
	var req addAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := model.Alert{
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		Severity:   model.Severity(req.Severity),
		Type:       model.AlertType(req.Type),
		Message:    req.Message,
	}
	if req.Timestamp != nil {
		in.Timestamp = req.Timestamp.UTC()
	}

	a, err := h.registry.AddAlert(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// AcknowledgeAlert handles POST /api/alerts/:id/ack.
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	if err := h.registry.AcknowledgeAlert(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type listActivitiesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// ListActivities handles GET /api/activities.
func (h *Handler) ListActivities(c *gin.Context) {
	var q listActivitiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	activities, err := h.registry.Activities(c.Request.Context(), q.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

type addActivityRequest struct {
	Action string `json:"action" binding:"required"`
	Device string `json:"device"`
	User   string `json:"user"`
}

// AddActivity handles POST /api/activities.
func (h *Handler) AddActivity(c *gin.Context) {
	var req addActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.User == "" {
		req.User = "Admin"
	}

	a, err := h.registry.AddActivity(c.Request.Context(), model.Activity{
		Action: req.Action,
		Device: req.Device,
		User:   req.User,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GetStatistics handles GET /api/statistics.
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.registry.Statistics(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
