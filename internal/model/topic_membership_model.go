package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MembershipSourceAuto   = "auto"
	MembershipSourceManual = "manual"
)

// TopicMembership ids are derived from (topic, note), so one row exists per pair.
type TopicMembership struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	TopicId          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_topic_note;index"`
	NoteId           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_topic_note"`
	UserId           uuid.UUID `gorm:"type:uuid;not null;index"`
	Score            float64   `gorm:"not null;default:0"`
	Source           string    `gorm:"type:varchar(16);not null;default:'auto'"`
	IsExcluded       bool      `gorm:"not null;default:false"`
	EventTime        *time.Time
	EventFingerprint string    `gorm:"type:varchar(32)"`
	EvidenceRank     int       `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (TopicMembership) TableName() string {
	return "topic_memberships"
}
