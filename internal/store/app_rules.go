package store

import (
	"context"

	"mdm-registry-backend/internal/model"
)

const selectedDevices = "Selected Devices"

var appRuleActivity = map[model.AppAction]string{
	model.AppActionBlock:   "App Blocked",
	model.AppActionAllow:   "App Allowed",
	model.AppActionMonitor: "App Monitored",
}

// AppRules returns every app rule in stored order.
func (s *Store) AppRules(ctx context.Context) ([]model.AppRule, error) {
	var out []model.AppRule
	err := s.view(ctx, func(doc *model.Document) error {
		out = make([]model.AppRule, 0, len(doc.AppRules))
		for _, r := range doc.AppRules {
			out = append(out, r.Clone())
		}
		return nil
	})
	return out, err
}

// AddAppRule stores a new app rule. The device ids it names are not checked.
func (s *Store) AddAppRule(ctx context.Context, in model.AppRule) (*model.AppRule, error) {
	var out model.AppRule
	err := s.update(ctx, func(t *txn) error {
		r := in.Clone()
		r.ID = nextID(t.doc, prefixAppRule)
		if r.Devices == nil {
			r.Devices = []string{}
		}
		t.doc.AppRules = append(t.doc.AppRules, r)

		action, ok := appRuleActivity[r.Action]
		if !ok {
			action = "App Rule Added"
		}
		t.addActivity(action, selectedDevices)
		out = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveAppRule deletes the rule with id. No activity is recorded and
// unknown ids are ignored.
func (s *Store) RemoveAppRule(ctx context.Context, id string) error {
	return s.update(ctx, func(t *txn) error {
		for i := range t.doc.AppRules {
			if t.doc.AppRules[i].ID == id {
				t.doc.AppRules = append(t.doc.AppRules[:i], t.doc.AppRules[i+1:]...)
				t.changed = true
				return nil
			}
		}
		return nil
	})
}
