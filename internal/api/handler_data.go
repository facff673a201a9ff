package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// maxImportBytes caps the size of an uploaded registry document.
const maxImportBytes = 8 << 20

// Export handles GET /api/export.
func (h *Handler) Export(c *gin.Context) {
	raw, err := h.registry.Export(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	filename := fmt.Sprintf("mdm-export-%s.json", time.Now().UTC().Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// Import handles POST /api/import. The body replaces the whole registry.
func (h *Handler) Import(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.registry.Import(c.Request.Context(), raw); err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("registry imported over http", "bytes", len(raw))
	c.Status(http.StatusNoContent)
}

// Reset handles POST /api/reset. The demo data is restored unless
// reseed=false is given.
func (h *Handler) Reset(c *gin.Context) {
	reseed := true
	if v := c.Query("reseed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid reseed value %q", v))
			return
		}
		reseed = b
	}
	if err := h.registry.Reset(c.Request.Context(), reseed); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
