package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Topic struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title          string         `gorm:"type:varchar(255);not null"`
	Keywords       datatypes.JSON `gorm:"type:jsonb"`
	Report         string         `gorm:"type:text"`
	MemberCount    int            `gorm:"not null;default:0"`
	IsPinned       bool           `gorm:"not null;default:false"`
	PinnedAt       *time.Time
	IsArchived     bool `gorm:"not null;default:false;index"`
	ArchivedAt     *time.Time
	LastIngestedAt *time.Time
	RunConfig      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`

	Memberships []TopicMembership `gorm:"foreignKey:TopicId"`
	Events      []TopicEvent      `gorm:"foreignKey:TopicId"`
}

func (Topic) TableName() string {
	return "topics"
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.Id == uuid.Nil {
		t.Id = uuid.New()
	}
	return nil
}
