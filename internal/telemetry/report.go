// Package telemetry ingests status reports sent by the device agent and
// folds them into the registry.
package telemetry

import (
	"errors"
	"strings"
)

// ErrInvalidReport is returned for a report that does not identify a device.
var ErrInvalidReport = errors.New("telemetry: report has no device identifier")

// Report is one status update from a device agent.
type Report struct {
	// UUID is the hardware identifier. It matches a device's IMEI or UUID.
	UUID     string    `json:"uuid" binding:"required"`
	Model    string    `json:"model,omitempty"`
	Platform string    `json:"platform,omitempty"`
	Version  string    `json:"version,omitempty"`
	Battery  *Battery  `json:"battery,omitempty"`
	Location *Position `json:"location,omitempty"`
	// Network is the connection type reported by the agent. "none" means
	// the device has lost connectivity.
	Network string `json:"network,omitempty"`
}

// Battery is the battery state of a device.
type Battery struct {
	Level     int  `json:"level" binding:"min=0,max=100"`
	IsPlugged bool `json:"isPlugged"`
}

// Position is a raw geolocation fix.
type Position struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lng float64 `json:"lng" binding:"min=-180,max=180"`
}

// Offline reports whether the agent said it has no network.
func (r Report) Offline() bool {
	return strings.EqualFold(strings.TrimSpace(r.Network), "none")
}
