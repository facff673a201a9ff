package model

import "time"

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AlertType is the category an alert belongs to.
type AlertType string

const (
	AlertTypeSecurity AlertType = "security"
	AlertTypePolicy   AlertType = "policy"
	AlertTypeApp      AlertType = "app"
	AlertTypeLocation AlertType = "location"
)

// Alert is a notable event raised against a device.
// DeviceName is denormalized so the alert stays readable after the device
// is unenrolled.
type Alert struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"deviceId"`
	DeviceName   string    `json:"deviceName"`
	Severity     Severity  `json:"severity"`
	Type         AlertType `json:"type"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}
