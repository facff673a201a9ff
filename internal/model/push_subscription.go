package model

import (
	"slices"
	"time"
)

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint string `json:"endpoint"`
	P256DH   string `json:"p256dh"`
	Auth     string `json:"auth"`
	// Devices limits notifications to alerts raised for these device IDs.
	// Empty means every device.
	Devices   []string  `json:"devices"`
	CreatedAt time.Time `json:"createdAt"`
}

// Wants reports whether the subscriber asked to hear about deviceID.
func (s PushSubscription) Wants(deviceID string) bool {
	return len(s.Devices) == 0 || slices.Contains(s.Devices, deviceID)
}
