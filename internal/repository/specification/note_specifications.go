package specification

import (
	"time"

	"gorm.io/gorm"
)

// UpdatedSince keeps notes touched at or after Since.
type UpdatedSince struct {
	Since time.Time
}

func (s UpdatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at >= ?", s.Since)
}

// RecentFirst orders by last update, newest first, with id as a stable tiebreak.
type RecentFirst struct{}

func (s RecentFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("updated_at DESC").Order("id ASC")
}
