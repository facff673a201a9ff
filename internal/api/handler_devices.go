package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/store"
)

type listDevicesQuery struct {
	Search string `form:"search"`
	Status string `form:"status" binding:"omitempty,oneof=pending active locked wiped"`
	OS     string `form:"os"`
}

// ListDevices handles GET /api/devices.
func (h *Handler) ListDevices(c *gin.Context) {
	var q listDevicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	devices, err := h.registry.ListDevices(c.Request.Context(), store.DeviceFilter{
		Search: q.Search,
		Status: model.DeviceStatus(q.Status),
		OS:     q.OS,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetDevice handles GET /api/devices/:id.
func (h *Handler) GetDevice(c *gin.Context) {
	d, err := h.registry.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type enrollDeviceRequest struct {
	Name      string `json:"name" binding:"required"`
	IMEI      string `json:"imei"`
	UUID      string `json:"uuid"`
	Model     string `json:"model"`
	OS        string `json:"os"`
	OSVersion string `json:"osVersion"`
	Owner     string `json:"owner"`
	Phone     string `json:"phone"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// EnrollDevice handles POST /api/devices.
func (h *Handler) EnrollDevice(c *gin.Context) {
	var req enrollDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.registry.EnrollDevice(c.Request.Context(), model.Device{
		Name:      req.Name,
		IMEI:      req.IMEI,
		UUID:      req.UUID,
		Model:     req.Model,
		OS:        req.OS,
		OSVersion: req.OSVersion,
		Owner:     req.Owner,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// optionalLocation tells an explicit "location": null, which clears the
// location, apart from an absent field.
type optionalLocation struct {
	set   bool
	value *model.Location
}

func (o *optionalLocation) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.value = nil
		return nil
	}
	var loc model.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return err
	}
	o.value = &loc
	return nil
}

type updateDeviceRequest struct {
	Name         *string          `json:"name"`
	IMEI         *string          `json:"imei"`
	UUID         *string          `json:"uuid"`
	Model        *string          `json:"model"`
	OS           *string          `json:"os"`
	OSVersion    *string          `json:"osVersion"`
	Status       *string          `json:"status" binding:"omitempty,oneof=pending active locked wiped"`
	Owner        *string          `json:"owner"`
	Phone        *string          `json:"phone"`
	Email        *string          `json:"email" binding:"omitempty,email"`
	EnrolledDate *string          `json:"enrolledDate"`
	LastSeen     *time.Time       `json:"lastSeen"`
	Location     optionalLocation `json:"location"`
	Battery      *int             `json:"battery" binding:"omitempty,min=0,max=100"`
	Storage      *model.Storage   `json:"storage"`
	Apps         *[]string        `json:"apps"`
}

func (r updateDeviceRequest) patch() store.DevicePatch {
	p := store.DevicePatch{
		Name:         r.Name,
		IMEI:         r.IMEI,
		UUID:         r.UUID,
		Model:        r.Model,
		OS:           r.OS,
		OSVersion:    r.OSVersion,
		Owner:        r.Owner,
		Phone:        r.Phone,
		Email:        r.Email,
		EnrolledDate: r.EnrolledDate,
		LastSeen:     r.LastSeen,
		Battery:      r.Battery,
		Storage:      r.Storage,
		Apps:         r.Apps,
	}
	if r.Status != nil {
		status := model.DeviceStatus(*r.Status)
		p.Status = &status
	}
	if r.Location.set {
		p.Location = r.Location.value
		p.ClearLocation = r.Location.value == nil
	}
	return p
}

// UpdateDevice handles PATCH /api/devices/:id.
func (h *Handler) UpdateDevice(c *gin.Context) {
	var req updateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.registry.UpdateDevice(c.Request.Context(), c.Param("id"), req.patch())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// UnenrollDevice handles DELETE /api/devices/:id.
func (h *Handler) UnenrollDevice(c *gin.Context) {
	if err := h.registry.UnenrollDevice(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LockDevice handles POST /api/devices/:id/lock.
func (h *Handler) LockDevice(c *gin.Context) {
	h.deviceCommand(c, h.registry.LockDevice, "lock")
}

// UnlockDevice handles POST /api/devices/:id/unlock.
func (h *Handler) UnlockDevice(c *gin.Context) {
	h.deviceCommand(c, h.registry.UnlockDevice, "unlock")
}

// WipeDevice handles POST /api/devices/:id/wipe.
func (h *Handler) WipeDevice(c *gin.Context) {
	h.deviceCommand(c, h.registry.WipeDevice, "wipe")
}

type deviceCommandFunc func(ctx context.Context, id string) (*model.Device, error)

func (h *Handler) deviceCommand(c *gin.Context, cmd deviceCommandFunc, name string) {
	id := c.Param("id")
	d, err := cmd(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("device command applied", "command", name, "id", id)
	c.JSON(http.StatusOK, d)
}
