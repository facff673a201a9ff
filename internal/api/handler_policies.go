package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mdm-registry-backend/internal/model"
)

// ListPolicies handles GET /api/policies.
func (h *Handler) ListPolicies(c *gin.Context) {
	policies, err := h.registry.Policies(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, policies)
}

type addPolicyRequest struct {
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=security network restriction"`
	Description string `json:"description"`
	Enforced    bool   `json:"enforced"`
}

// AddPolicy handles POST /api/policies.
func (h *Handler) AddPolicy(c *gin.Context) {
	var req addPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.registry.AddPolicy(c.Request.Context(), model.Policy{
		Name:        req.Name,
		Type:        model.PolicyType(req.Type),
		Description: req.Description,
		Enforced:    req.Enforced,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListAppRules handles GET /api/app-rules.
func (h *Handler) ListAppRules(c *gin.Context) {
	rules, err := h.registry.AppRules(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

type addAppRuleRequest struct {
	Name        string   `json:"name" binding:"required"`
	PackageName string   `json:"packageName" binding:"required"`
	Action      string   `json:"action" binding:"required,oneof=block allow monitor"`
	Devices     []string `json:"devices"`
	Reason      string   `json:"reason"`
}

// AddAppRule handles POST /api/app-rules.
func (h *Handler) AddAppRule(c *gin.Context) {
	var req addAppRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.registry.AddAppRule(c.Request.Context(), model.AppRule{
		Name:        req.Name,
		PackageName: req.PackageName,
		Action:      model.AppAction(req.Action),
		Devices:     req.Devices,
		Reason:      req.Reason,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// RemoveAppRule handles DELETE /api/app-rules/:id.
func (h *Handler) RemoveAppRule(c *gin.Context) {
	if err := h.registry.RemoveAppRule(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
