package store

import (
	"time"

	"mdm-registry-backend/internal/model"
)

// seedDocument builds the demo registry written on first run. Relative
// timestamps are anchored at now.
func seedDocument(now time.Time) *model.Document {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }

	doc := &model.Document{
		Version: model.DocumentVersion,
		Sequences: map[string]int{
			prefixDevice:  4,
			prefixPolicy:  6,
			prefixAppRule: 5,
			prefixAlert:   5,
		},
		Devices: []model.Device{
			{
				ID: "DEV001", Name: "John's iPhone", IMEI: "352099001761481",
				Model: "iPhone 13 Pro", OS: "iOS", OSVersion: "16.5",
				Status: model.DeviceStatusActive, Owner: "John Doe",
				Phone: "+1234567890", Email: "john@example.com",
				EnrolledDate: "2024-01-15", LastSeen: now,
				Location: &model.Location{Lat: 37.7749, Lng: -122.4194, Address: "San Francisco, CA"},
				Battery: 85, Storage: model.Storage{Used: 45, Total: 128},
				Apps: []string{"com.example.app1", "com.social.facebook", "com.social.instagram"},
			},
			{
				ID: "DEV002", Name: "Sarah's Galaxy", IMEI: "352099001761482",
				Model: "Samsung Galaxy S22", OS: "Android", OSVersion: "13.0",
				Status: model.DeviceStatusActive, Owner: "Sarah Smith",
				Phone: "+1234567891", Email: "sarah@example.com",
				EnrolledDate: "2024-02-10", LastSeen: ago(time.Hour),
				Location: &model.Location{Lat: 34.0522, Lng: -118.2437, Address: "Los Angeles, CA"},
				Battery: 62, Storage: model.Storage{Used: 80, Total: 256},
				Apps: []string{"com.example.app1", "com.social.twitter", "com.game.candycrush"},
			},
			{
				ID: "DEV003", Name: "Mike's Pixel", IMEI: "352099001761483",
				Model: "Google Pixel 7", OS: "Android", OSVersion: "14.0",
				Status: model.DeviceStatusLocked, Owner: "Mike Johnson",
				Phone: "+1234567892", Email: "mike@example.com",
				EnrolledDate: "2024-03-05", LastSeen: ago(2 * time.Hour),
				Location: &model.Location{Lat: 40.7128, Lng: -74.0060, Address: "New York, NY"},
				Battery: 15, Storage: model.Storage{Used: 100, Total: 128},
				Apps: []string{"com.example.app1", "com.social.tiktok"},
			},
			{
				ID: "DEV004", Name: "Lisa's iPhone", IMEI: "352099001761484",
				Model: "iPhone 14", OS: "iOS", OSVersion: "17.0",
				Status: model.DeviceStatusPending, Owner: "Lisa Brown",
				Phone: "+1234567893", Email: "lisa@example.com",
				EnrolledDate: today(now), LastSeen: ago(30 * time.Minute),
				Battery: 100, Storage: model.Storage{Used: 20, Total: 256},
				Apps: []string{},
			},
		},
		Policies: []model.Policy{
			{ID: "POL001", Name: "Password Required", Type: model.PolicyTypeSecurity, Description: "All devices must have a password/PIN set", Enforced: true, CreatedDate: "2024-01-01"},
			{ID: "POL002", Name: "Encryption Mandatory", Type: model.PolicyTypeSecurity, Description: "Device encryption must be enabled", Enforced: true, CreatedDate: "2024-01-01"},
			{ID: "POL003", Name: "WiFi Only for Updates", Type: model.PolicyTypeNetwork, Description: "OS updates must be downloaded over WiFi only", Enforced: true, CreatedDate: "2024-01-15"},
			{ID: "POL004", Name: "VPN Required", Type: model.PolicyTypeNetwork, Description: "VPN must be active when accessing corporate resources", Enforced: true, CreatedDate: "2024-02-01"},
			{ID: "POL005", Name: "Camera Disabled", Type: model.PolicyTypeRestriction, Description: "Camera is disabled during work hours", Enforced: false, CreatedDate: "2024-02-15"},
			{ID: "POL006", Name: "Screenshot Prevention", Type: model.PolicyTypeRestriction, Description: "Screenshots are blocked in sensitive apps", Enforced: true, CreatedDate: "2024-03-01"},
		},
		AppRules: []model.AppRule{
			{ID: "APP001", Name: "Facebook", PackageName: "com.social.facebook", Action: model.AppActionBlock, Devices: []string{"DEV001", "DEV002"}, Reason: "Social media restricted during work hours"},
			{ID: "APP002", Name: "Instagram", PackageName: "com.social.instagram", Action: model.AppActionBlock, Devices: []string{"DEV001"}, Reason: "Social media restricted"},
			{ID: "APP003", Name: "TikTok", PackageName: "com.social.tiktok", Action: model.AppActionBlock, Devices: []string{"DEV003"}, Reason: "Potential security risk"},
			{ID: "APP004", Name: "Corporate App", PackageName: "com.example.app1", Action: model.AppActionAllow, Devices: []string{"DEV001", "DEV002", "DEV003"}, Reason: "Required for work"},
			{ID: "APP005", Name: "Twitter", PackageName: "com.social.twitter", Action: model.AppActionMonitor, Devices: []string{"DEV002"}, Reason: "Usage monitoring"},
		},
		Alerts: []model.Alert{
			{ID: "ALR001", DeviceID: "DEV003", DeviceName: "Mike's Pixel", Severity: model.SeverityCritical, Type: model.AlertTypeSecurity, Message: "Device has been locked due to multiple failed login attempts", Timestamp: now},
			{ID: "ALR002", DeviceID: "DEV002", DeviceName: "Sarah's Galaxy", Severity: model.SeverityHigh, Type: model.AlertTypePolicy, Message: "Policy violation: Unauthorized app installation detected", Timestamp: ago(time.Hour)},
			{ID: "ALR003", DeviceID: "DEV001", DeviceName: "John's iPhone", Severity: model.SeverityMedium, Type: model.AlertTypeApp, Message: "Blocked app access attempt: Facebook", Timestamp: ago(2 * time.Hour)},
			{ID: "ALR004", DeviceID: "DEV003", DeviceName: "Mike's Pixel", Severity: model.SeverityHigh, Type: model.AlertTypeLocation, Message: "Device detected outside allowed geofence", Timestamp: ago(3 * time.Hour), Acknowledged: true},
			{ID: "ALR005", DeviceID: "DEV002", DeviceName: "Sarah's Galaxy", Severity: model.SeverityLow, Type: model.AlertTypeSecurity, Message: "Low battery - device at 15%", Timestamp: ago(4 * time.Hour), Acknowledged: true},
		},
		Activities: []model.Activity{
			{Action: "Device Locked", Device: "Mike's Pixel", User: "System", Timestamp: now},
			{Action: "Device Enrolled", Device: "Lisa's iPhone", User: adminUser, Timestamp: ago(30 * time.Minute)},
			{Action: "App Blocked", Device: "John's iPhone", User: "System", Timestamp: ago(time.Hour)},
			{Action: "Policy Updated", Device: allDevices, User: adminUser, Timestamp: ago(2 * time.Hour)},
		},
	}
	return doc
}
