package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// NoteEmbedding holds the single active vector of a note. Dimension depends on the model, so the column is
// unconstrained.
type NoteEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	NoteId         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	ModelId        string          `gorm:"type:varchar(128);not null"`
	ContentHash    string          `gorm:"type:char(64);not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (NoteEmbedding) TableName() string {
	return "note_embeddings"
}

func (e *NoteEmbedding) BeforeCreate(tx *gorm.DB) error {
	if e.Id == uuid.Nil {
		e.Id = uuid.New()
	}
	return nil
}
