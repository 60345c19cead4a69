package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TopicEvent struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TopicId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Fingerprint string         `gorm:"type:varchar(32);not null"`
	EventTime   time.Time      `gorm:"not null;index"`
	Title       string         `gorm:"type:varchar(255)"`
	Importance  float64        `gorm:"not null;default:0"`
	NoteIds     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
}

func (TopicEvent) TableName() string {
	return "topic_events"
}
