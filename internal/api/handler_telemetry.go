package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mdm-registry-backend/internal/telemetry"
)

// PostTelemetry handles POST /api/telemetry.
func (h *Handler) PostTelemetry(c *gin.Context) {
	if h.telemetry == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telemetry is not enabled"})
		return
	}

	var report telemetry.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.telemetry.Apply(c.Request.Context(), report)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
