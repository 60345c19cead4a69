package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note rows are written by the note service; this module only reads them.
type Note struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Title       string         `gorm:"type:varchar(255);not null"`
	Excerpt     string         `gorm:"type:text"`
	Content     string         `gorm:"type:text"`
	PublishedAt string         `gorm:"type:varchar(64)"` // raw value from the source feed
	NotebookId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime;index"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Note) TableName() string {
	return "notes"
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.Id == uuid.Nil {
		n.Id = uuid.New()
	}
	return nil
}
