package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotArchived struct{}

func (s NotArchived) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_archived = ?", false)
}

type ByTopicID struct {
	TopicID uuid.UUID
}

func (s ByTopicID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("topic_id = ?", s.TopicID)
}

type ByTopicIDs struct {
	TopicIDs []uuid.UUID
}

func (s ByTopicIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("topic_id IN ?", s.TopicIDs)
}

// Included drops memberships the user excluded.
type Included struct{}

func (s Included) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_excluded = ?", false)
}

// PinnedFirst orders topics for listing.
type PinnedFirst struct{}

func (s PinnedFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("is_pinned DESC").Order("updated_at DESC").Order("id ASC")
}
