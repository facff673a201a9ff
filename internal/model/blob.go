package model

import "time"

// Blob is a single key-value row. The registry document and the push
// subscription list are each stored as one Blob.
type Blob struct {
	ID        string    `gorm:"primaryKey;size:128"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
