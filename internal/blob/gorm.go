package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mdm-registry-backend/internal/model"
)

// gormStore implements Store with one row per key in the blobs table.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row model.Blob
	err := s.db.WithContext(ctx).First(&row, "id = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %q: %w", key, err)
	}
	return []byte(row.Value), nil
}

// Put writes the value in a single upsert statement so readers never see a
// partially written value.
func (s *gormStore) Put(ctx context.Context, key string, value []byte) error {
	return upsert(s.db.WithContext(ctx), key, value)
}

// Update holds a row lock (SELECT ... FOR UPDATE) for the duration of fn.
// SQLite has no row locks; its database-level write lock serializes the
// transaction instead.
func (s *gormStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			row     model.Blob
			current []byte
		)
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", key).Error
		switch {
		case err == nil:
			current = []byte(row.Value)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("failed to lock blob %q: %w", key, err)
		}

		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		return upsert(tx, key, next)
	})
}

func upsert(db *gorm.DB, key string, value []byte) error {
	row := model.Blob{
		ID:        key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write blob %q: %w", key, err)
	}
	return nil
}

func (s *gormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&model.Blob{}, "id = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}
	return nil
}
