package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"mdm-registry-backend/internal/blob"
	"mdm-registry-backend/internal/model"
)

// ErrSubscriptionNotFound is returned when no subscription has the endpoint.
var ErrSubscriptionNotFound = errors.New("notification: subscription not found")

// Subscriptions persists push subscriptions as one JSON list in a blob.
type Subscriptions struct {
	blobs blob.Store
	key   string
	now   func() time.Time

	mu sync.Mutex
}

// NewSubscriptions creates a subscription store under key.
func NewSubscriptions(blobs blob.Store, key string) *Subscriptions {
	return &Subscriptions{
		blobs: blobs,
		key:   key,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns every subscription.
func (s *Subscriptions) List(ctx context.Context) ([]model.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the subscription for endpoint.
func (s *Subscriptions) Get(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	subs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.Endpoint == endpoint {
			return &sub, nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

// Put creates or replaces the subscription with the same endpoint. The
// original creation time is kept on replace.
func (s *Subscriptions) Put(ctx context.Context, sub model.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load(ctx)
	if err != nil {
		return err
	}
	sub.CreatedAt = s.now()
	if sub.Devices == nil {
		sub.Devices = []string{}
	}
	for i := range subs {
		if subs[i].Endpoint == sub.Endpoint {
			sub.CreatedAt = subs[i].CreatedAt
			subs[i] = sub
			return s.save(ctx, subs)
		}
	}
	return s.save(ctx, append(subs, sub))
}

// Delete removes the subscription for endpoint. Unknown endpoints are ignored.
func (s *Subscriptions) Delete(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := subs[:0]
	for _, sub := range subs {
		if sub.Endpoint != endpoint {
			kept = append(kept, sub)
		}
	}
	if len(kept) == len(subs) {
		return nil
	}
	return s.save(ctx, kept)
}

func (s *Subscriptions) load(ctx context.Context) ([]model.PushSubscription, error) {
	raw, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return []model.PushSubscription{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions: %w", err)
	}
	var subs []model.PushSubscription
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

func (s *Subscriptions) save(ctx context.Context, subs []model.PushSubscription) error {
	raw, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("failed to encode subscriptions: %w", err)
	}
	if err := s.blobs.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to write subscriptions: %w", err)
	}
	return nil
}
