package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunMarkerRepository remembers when the scheduler last rebuilt a user's topics.
type RunMarkerRepository interface {
	LastRun(ctx context.Context, userId uuid.UUID) (time.Time, bool, error)
	MarkRun(ctx context.Context, userId uuid.UUID, at time.Time) error
}
