package store

import (
	"strings"
	"time"

	"mdm-registry-backend/internal/model"
)

// DeviceFilter narrows ListDevices. Zero-valued fields impose no constraint;
// set fields are AND-combined.
type DeviceFilter struct {
	// Search matches name, id, IMEI and model case-insensitively.
	Search string
	Status model.DeviceStatus
	OS     string
}

func (f DeviceFilter) match(d model.Device) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.OS != "" && d.OS != f.OS {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	for _, field := range []string{d.Name, d.ID, d.IMEI, d.Model} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// AlertFilter narrows Alerts. Zero-valued fields impose no constraint.
type AlertFilter struct {
	Severity model.Severity
	Type     model.AlertType
}

func (f AlertFilter) match(a model.Alert) bool {
	if f.Severity != "" && a.Severity != f.Severity {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	return true
}

// DevicePatch is a shallow partial update. Nil fields are left untouched;
// ClearLocation removes the location, which a nil Location cannot express.
// The ID is never patched.
type DevicePatch struct {
	Name          *string
	IMEI          *string
	UUID          *string
	Model         *string
	OS            *string
	OSVersion     *string
	Status        *model.DeviceStatus
	Owner         *string
	Phone         *string
	Email         *string
	EnrolledDate  *string
	LastSeen      *time.Time
	Location      *model.Location
	ClearLocation bool
	Battery       *int
	Storage       *model.Storage
	Apps          *[]string
}

func (p DevicePatch) apply(d *model.Device) {
	setString(&d.Name, p.Name)
	setString(&d.IMEI, p.IMEI)
	setString(&d.UUID, p.UUID)
	setString(&d.Model, p.Model)
	setString(&d.OS, p.OS)
	setString(&d.OSVersion, p.OSVersion)
	setString(&d.Owner, p.Owner)
	setString(&d.Phone, p.Phone)
	setString(&d.Email, p.Email)
	setString(&d.EnrolledDate, p.EnrolledDate)
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.LastSeen != nil {
		d.LastSeen = *p.LastSeen
	}
	switch {
	case p.ClearLocation:
		d.Location = nil
	case p.Location != nil:
		loc := *p.Location
		d.Location = &loc
	}
	if p.Battery != nil {
		d.Battery = *p.Battery
	}
	if p.Storage != nil {
		d.Storage = *p.Storage
	}
	if p.Apps != nil {
		d.Apps = append([]string{}, (*p.Apps)...)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
