package store

import (
	"context"

	"mdm-registry-backend/internal/model"
)

// Statistics is the dashboard summary of the registry.
type Statistics struct {
	TotalDevices             int `json:"totalDevices"`
	ActiveDevices            int `json:"activeDevices"`
	LockedDevices            int `json:"lockedDevices"`
	UnacknowledgedAlertCount int `json:"unacknowledgedAlertCount"`
}

// Statistics aggregates the current document.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	err := s.view(ctx, func(doc *model.Document) error {
		st.TotalDevices = len(doc.Devices)
		for _, d := range doc.Devices {
			switch d.Status {
			case model.DeviceStatusActive:
				st.ActiveDevices++
			case model.DeviceStatusLocked:
				st.LockedDevices++
			}
		}
		for _, a := range doc.Alerts {
			if !a.Acknowledged {
				st.UnacknowledgedAlertCount++
			}
		}
		return nil
	})
	return st, err
}
