package memory

import (
	"context"
	"sync"
	"time"

	"newsbox-topics/internal/repository/contract"

	"github.com/google/uuid"
)

// RunMarkerRepository is the in-process marker store used when Redis is unavailable and by the CLI.
type RunMarkerRepository struct {
	mu      sync.Mutex
	markers map[uuid.UUID]time.Time
}

func NewRunMarkerRepository() contract.RunMarkerRepository {
	return &RunMarkerRepository{markers: make(map[uuid.UUID]time.Time)}
}

func (r *RunMarkerRepository) LastRun(ctx context.Context, userId uuid.UUID) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.markers[userId]
	return t, ok, nil
}

func (r *RunMarkerRepository) MarkRun(ctx context.Context, userId uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[userId] = at
	return nil
}
