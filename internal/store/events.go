package store

import (
	"context"
	"sort"
	"time"

	"mdm-registry-backend/internal/model"
)

const (
	maxAlerts     = 100
	maxActivities = 50

	// DefaultActivityLimit is used by Activities when limit is not positive.
	DefaultActivityLimit = 10

	adminUser = "Admin"
)

// Alerts returns the alerts matching filter, newest first.
func (s *Store) Alerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	var out []model.Alert
	err := s.view(ctx, func(doc *model.Document) error {
		out = make([]model.Alert, 0, len(doc.Alerts))
		for _, a := range doc.Alerts {
			if filter.match(a) {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, err
}

// AddAlert stores a new alert at the front of the log and evicts the oldest
// beyond the cap. A zero timestamp is set to now.
func (s *Store) AddAlert(ctx context.Context, in model.Alert) (*model.Alert, error) {
	var out model.Alert
	err := s.update(ctx, func(t *txn) error {
		out = t.addAlert(in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AcknowledgeAlert marks the alert with id as acknowledged. Unknown ids are
// ignored.
func (s *Store) AcknowledgeAlert(ctx context.Context, id string) error {
	return s.update(ctx, func(t *txn) error {
		for i := range t.doc.Alerts {
			if t.doc.Alerts[i].ID == id {
				t.doc.Alerts[i].Acknowledged = true
				t.changed = true
				return nil
			}
		}
		return nil
	})
}

// Activities returns up to limit of the most recent activity records.
func (s *Store) Activities(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	var out []model.Activity
	err := s.view(ctx, func(doc *model.Document) error {
		n := min(limit, len(doc.Activities))
		out = append([]model.Activity{}, doc.Activities[:n]...)
		return nil
	})
	return out, err
}

// AddActivity records an activity at the front of the log. A zero
// timestamp is set to now.
func (s *Store) AddActivity(ctx context.Context, in model.Activity) (*model.Activity, error) {
	var out model.Activity
	err := s.update(ctx, func(t *txn) error {
		out = t.pushActivity(in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// addActivity records an action performed by the console user.
func (t *txn) addActivity(action, device string) {
	t.pushActivity(model.Activity{Action: action, Device: device, User: adminUser})
}

func (t *txn) pushActivity(a model.Activity) model.Activity {
	if a.Timestamp.IsZero() {
		a.Timestamp = t.now
	}
	t.doc.Activities = prepend(t.doc.Activities, a, maxActivities)
	t.changed = true
	return a
}

func (t *txn) addAlert(a model.Alert) model.Alert {
	a.ID = nextID(t.doc, prefixAlert)
	if a.Timestamp.IsZero() {
		a.Timestamp = t.now
	}
	t.doc.Alerts = prepend(t.doc.Alerts, a, maxAlerts)
	t.alerts = append(t.alerts, a)
	t.changed = true
	return a
}

// prepend inserts v at the front of s and drops entries beyond limit.
func prepend[T any](s []T, v T, limit int) []T {
	out := make([]T, 0, min(len(s)+1, limit))
	out = append(out, v)
	for _, e := range s {
		if len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out
}

func today(now time.Time) string {
	return now.Format(time.DateOnly)
}
