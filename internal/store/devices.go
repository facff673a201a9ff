package store

import (
	"context"

	"mdm-registry-backend/internal/model"
)

const (
	defaultBattery      = 100
	defaultStorageTotal = 128

	lockAlertMessage = "Device has been remotely locked by administrator"
	wipeAlertMessage = "Device has been remotely wiped"
)

// ListDevices returns the devices matching filter in stored order.
func (s *Store) ListDevices(ctx context.Context, filter DeviceFilter) ([]model.Device, error) {
	var out []model.Device
	err := s.view(ctx, func(doc *model.Document) error {
		out = make([]model.Device, 0, len(doc.Devices))
		for _, d := range doc.Devices {
			if filter.match(d) {
				out = append(out, d.Clone())
			}
		}
		return nil
	})
	return out, err
}

// GetDevice returns the device with id or ErrNotFound.
func (s *Store) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	var out *model.Device
	err := s.view(ctx, func(doc *model.Document) error {
		i := deviceIndex(doc, id)
		if i < 0 {
			return ErrNotFound
		}
		d := doc.Devices[i].Clone()
		out = &d
		return nil
	})
	return out, err
}

// FindDeviceByExternalID returns the device whose IMEI or hardware UUID
// equals hwID.
func (s *Store) FindDeviceByExternalID(ctx context.Context, hwID string) (*model.Device, error) {
	if hwID == "" {
		return nil, ErrNotFound
	}
	var out *model.Device
	err := s.view(ctx, func(doc *model.Document) error {
		for _, d := range doc.Devices {
			if d.IMEI == hwID || d.UUID == hwID {
				c := d.Clone()
				out = &c
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

// EnrollDevice registers a new device. The store assigns the id and
// overwrites status, enrolment date, last-seen time, battery, storage, apps
// and location with their enrolment defaults whatever the input carries.
func (s *Store) EnrollDevice(ctx context.Context, in model.Device) (*model.Device, error) {
	var out model.Device
	err := s.update(ctx, func(t *txn) error {
		d := in.Clone()
		d.ID = nextID(t.doc, prefixDevice)
		d.Status = model.DeviceStatusPending
		d.EnrolledDate = today(t.now)
		d.LastSeen = t.now
		d.Apps = []string{}
		d.Battery = defaultBattery
		d.Storage = model.Storage{Used: 0, Total: defaultStorageTotal}
		d.Location = nil

		t.doc.Devices = append(t.doc.Devices, d)
		t.addActivity("Device Enrolled", d.Name)
		out = d.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("device enrolled", "id", out.ID, "name", out.Name)
	return &out, nil
}

// UpdateDevice shallow-merges patch into the device with id. Values are not
// validated.
func (s *Store) UpdateDevice(ctx context.Context, id string, patch DevicePatch) (*model.Device, error) {
	return s.mutateDevice(ctx, id, func(t *txn, d *model.Device) {
		patch.apply(d)
	})
}

// LockDevice sets the device status to locked and raises a high severity
// security alert.
func (s *Store) LockDevice(ctx context.Context, id string) (*model.Device, error) {
	return s.mutateDevice(ctx, id, func(t *txn, d *model.Device) {
		d.Status = model.DeviceStatusLocked
		t.addActivity("Device Locked", d.Name)
		t.addAlert(model.Alert{
			DeviceID:   d.ID,
			DeviceName: d.Name,
			Severity:   model.SeverityHigh,
			Type:       model.AlertTypeSecurity,
			Message:    lockAlertMessage,
		})
	})
}

// UnlockDevice sets the device status back to active.
func (s *Store) UnlockDevice(ctx context.Context, id string) (*model.Device, error) {
	return s.mutateDevice(ctx, id, func(t *txn, d *model.Device) {
		d.Status = model.DeviceStatusActive
		t.addActivity("Device Unlocked", d.Name)
	})
}

// WipeDevice marks the device wiped, clears its apps and used storage and
// raises a critical security alert. Total storage is preserved.
func (s *Store) WipeDevice(ctx context.Context, id string) (*model.Device, error) {
	return s.mutateDevice(ctx, id, func(t *txn, d *model.Device) {
		d.Status = model.DeviceStatusWiped
		d.Apps = []string{}
		total := d.Storage.Total
		if total == 0 {
			total = defaultStorageTotal
		}
		d.Storage = model.Storage{Used: 0, Total: total}
		t.addActivity("Device Wiped", d.Name)
		t.addAlert(model.Alert{
			DeviceID:   d.ID,
			DeviceName: d.Name,
			Severity:   model.SeverityCritical,
			Type:       model.AlertTypeSecurity,
			Message:    wipeAlertMessage,
		})
	})
}

// UnenrollDevice removes the device. Removing an unknown id is a no-op.
// App rules and alerts that reference the device are kept.
func (s *Store) UnenrollDevice(ctx context.Context, id string) error {
	var removed bool
	err := s.update(ctx, func(t *txn) error {
		i := deviceIndex(t.doc, id)
		removed = i >= 0
		if !removed {
			return nil
		}
		name := t.doc.Devices[i].Name
		t.doc.Devices = append(t.doc.Devices[:i], t.doc.Devices[i+1:]...)
		t.addActivity("Device Unenrolled", name)
		return nil
	})
	if err == nil && removed {
		s.logger.Info("device unenrolled", "id", id)
	}
	return err
}

func (s *Store) mutateDevice(ctx context.Context, id string, fn func(t *txn, d *model.Device)) (*model.Device, error) {
	var out model.Device
	err := s.update(ctx, func(t *txn) error {
		i := deviceIndex(t.doc, id)
		if i < 0 {
			return ErrNotFound
		}
		d := &t.doc.Devices[i]
		fn(t, d)
		t.changed = true
		out = d.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func deviceIndex(doc *model.Document, id string) int {
	for i := range doc.Devices {
		if doc.Devices[i].ID == id {
			return i
		}
	}
	return -1
}
