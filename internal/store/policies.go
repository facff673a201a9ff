package store

import (
	"context"

	"mdm-registry-backend/internal/model"
)

const allDevices = "All Devices"

// Policies returns every policy in stored order.
func (s *Store) Policies(ctx context.Context) ([]model.Policy, error) {
	var out []model.Policy
	err := s.view(ctx, func(doc *model.Document) error {
		out = append([]model.Policy{}, doc.Policies...)
		return nil
	})
	return out, err
}

// AddPolicy stores a new policy dated today.
func (s *Store) AddPolicy(ctx context.Context, in model.Policy) (*model.Policy, error) {
	var out model.Policy
	err := s.update(ctx, func(t *txn) error {
		p := in
		p.ID = nextID(t.doc, prefixPolicy)
		p.CreatedDate = today(t.now)
		t.doc.Policies = append(t.doc.Policies, p)
		t.addActivity("Policy Created", allDevices)
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("policy created", "id", out.ID, "type", out.Type)
	return &out, nil
}
