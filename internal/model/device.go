package model

import "time"

// DeviceStatus is the lifecycle state of an enrolled device.
type DeviceStatus string

const (
	DeviceStatusPending DeviceStatus = "pending"
	DeviceStatusActive  DeviceStatus = "active"
	DeviceStatusLocked  DeviceStatus = "locked"
	DeviceStatusWiped   DeviceStatus = "wiped"
)

// Location is the last reported geolocation of a device.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Storage reports device storage usage in gigabytes.
type Storage struct {
	Used  int `json:"used"`
	Total int `json:"total"`
}

// Device represents an enrolled mobile device.
type Device struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	IMEI         string       `json:"imei"`
	UUID         string       `json:"uuid,omitempty"`
	Model        string       `json:"model"`
	OS           string       `json:"os"`
	OSVersion    string       `json:"osVersion"`
	Status       DeviceStatus `json:"status"`
	Owner        string       `json:"owner"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email"`
	EnrolledDate string       `json:"enrolledDate"`
	LastSeen     time.Time    `json:"lastSeen"`
	Location     *Location    `json:"location"`
	Battery      int          `json:"battery"`
	Storage      Storage      `json:"storage"`
	Apps         []string     `json:"apps"`
}

// Clone returns a copy of the device that shares no memory with d.
func (d Device) Clone() Device {
	if d.Location != nil {
		loc := *d.Location
		d.Location = &loc
	}
	if d.Apps != nil {
		d.Apps = append([]string{}, d.Apps...)
	}
	return d
}
