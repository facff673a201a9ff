package store

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

// DefaultKey is the blob key the registry document is stored under.
const DefaultKey = "mdm_devices_data"

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store owns the registry document. Every read and write goes through it.
//
// Each mutation runs a full load-mutate-save cycle inside blob.Store.Update,
// which the backends make atomic across processes (row lock or WATCH). mu
// additionally serializes callers within this process. Composite operations
// (lock, wipe) persist once.
type Store struct {
	blobs    blob.Store
	key      string
	seed     bool
	now      func() time.Time
	logger   Logger
	onAlert  func(model.Alert)
	onChange func()

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the blob key of the registry document.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock sets the time source. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSeed controls whether the first Load on an empty backend writes the
// demo fixture. Seeding is on by default.
func WithSeed(enabled bool) Option {
	return func(s *Store) { s.seed = enabled }
}

// WithAlertHook registers fn to receive every alert added to the registry.
// fn runs after the alert is persisted and outside the store lock, so it
// may call back into the store.
func WithAlertHook(fn func(model.Alert)) Option {
	return func(s *Store) { s.onAlert = fn }
}

// WithChangeHook registers fn to run after every write to the registry
// document. Like the alert hook it runs outside the store lock. Response
// caches use it to drop entries derived from the old document.
func WithChangeHook(fn func()) Option {
	return func(s *Store) { s.onChange = fn }
}

// New creates a registry store on top of blobs.
func New(blobs blob.Store, opts ...Option) *Store {
	s := &Store{
		blobs:  blobs,
		key:    DefaultKey,
		seed:   true,
		now:    func() time.Time { return time.Now().UTC() },
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted document. On an empty backend it seeds the
// fixture (unless disabled) and returns that. A document that cannot be
// decoded yields ErrMalformedState.
func (s *Store) Load(ctx context.Context) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save replaces the persisted document with doc.
func (s *Store) Save(ctx context.Context, doc *model.Document) error {
	s.mu.Lock()
	err := s.save(ctx, doc)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.changed()
	return nil
}

// Export returns the persisted document as indented JSON.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode registry: %w", err)
	}
	return out, nil
}

// Import replaces the persisted document with raw, which must be a
// registry document as produced by Export.
func (s *Store) Import(ctx context.Context, raw []byte) error {
	doc, err := decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := s.Save(ctx, doc); err != nil {
		return err
	}
	s.logger.Info("registry imported", "devices", len(doc.Devices), "alerts", len(doc.Alerts))
	return nil
}

// Reset discards the persisted document. With reseed the demo fixture is
// written in its place, otherwise an empty document is.
func (s *Store) Reset(ctx context.Context, reseed bool) error {
	doc := model.NewDocument()
	if reseed {
		doc = seedDocument(s.now())
	}
	if err := s.Save(ctx, doc); err != nil {
		return err
	}
	s.logger.Warn("registry reset", "reseeded", reseed)
	return nil
}

func (s *Store) load(ctx context.Context) (*model.Document, error) {
	raw, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		if !s.seed {
			return model.NewDocument(), nil
		}
		// Another process may seed or write between Get and here, so the
		// fixture is only written if the key is still empty.
		var doc *model.Document
		err := s.blobs.Update(ctx, s.key, func(current []byte) ([]byte, error) {
			d, seeded, err := s.decodeOrSeed(current)
			if err != nil {
				return nil, err
			}
			doc = d
			if !seeded {
				return nil, nil
			}
			return encode(d)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to persist seed data: %w", err)
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	return s.decodeStored(raw)
}

// decodeOrSeed turns the stored value into a document. An absent value
// becomes the fixture (seeded is true) or, with seeding off, an empty
// document.
func (s *Store) decodeOrSeed(raw []byte) (doc *model.Document, seeded bool, err error) {
	if raw == nil {
		if !s.seed {
			return model.NewDocument(), false, nil
		}
		doc = seedDocument(s.now())
		s.logger.Info("registry seeded", "devices", len(doc.Devices), "policies", len(doc.Policies))
		return doc, true, nil
	}
	doc, err = s.decodeStored(raw)
	return doc, false, err
}

func (s *Store) decodeStored(raw []byte) (*model.Document, error) {
	doc, err := decode(raw)
	if err != nil {
		s.logger.Error("registry document is corrupt", "key", s.key, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc *model.Document) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func encode(doc *model.Document) ([]byte, error) {
	doc.Version = model.DocumentVersion
	doc.Normalize()
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registry: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

// txn is the mutable view handed to update callbacks.
type txn struct {
	doc     *model.Document
	now     time.Time
	alerts  []model.Alert
	changed bool
}

// view runs fn against the current document under the lock. fn must not
// modify the document.
func (s *Store) view(ctx context.Context, fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn inside one atomic load-mutate-save cycle. The document is
// saved only when fn marks the transaction changed and returns no error; fn
// may run again if the backend reports a conflicting writer. Hooks fire
// after the lock is released.
func (s *Store) update(ctx context.Context, fn func(t *txn) error) error {
	var t *txn
	s.mu.Lock()
	err := s.blobs.Update(ctx, s.key, func(current []byte) ([]byte, error) {
		doc, seeded, err := s.decodeOrSeed(current)
		if err != nil {
			return nil, err
		}
		t = &txn{doc: doc, now: s.now()}
		if err := fn(t); err != nil {
			return nil, err
		}
		if !t.changed && !seeded {
			return nil, nil
		}
		return encode(doc)
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if t.changed {
		s.changed()
	}
	if s.onAlert != nil {
		for _, a := range t.alerts {
			s.onAlert(a)
		}
	}
	return nil
}
