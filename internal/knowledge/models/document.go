package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a source document stored for text search and vector indexing.
type Document struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Collection string    `gorm:"type:varchar(255);not null;index"`

	Title   string `gorm:"type:varchar(1024);not null"`
	Content string `gorm:"type:text;not null"`

	ChunkCount int `gorm:"default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName returns the table name.
func (Document) TableName() string {
	return "documents"
}

// Validate checks required fields.
func (d *Document) Validate() error {
	if d.Collection == "" {
		return ErrInvalidCollection
	}
	if d.Title == "" {
		return ErrInvalidTitle
	}
	if d.Content == "" {
		return ErrInvalidContent
	}
	return nil
}

// AutoMigrate creates the documents table and its indexes.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Document{}); err != nil {
		return fmt.Errorf("failed to migrate %T: %w", &Document{}, err)
	}

	if err := db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_doc_collection_created
		ON documents(collection, created_at DESC)
	`).Error; err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
