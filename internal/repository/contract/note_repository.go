package contract

import (
	"context"
	"time"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindActiveOwners lists users with notes updated at or after since, most recently active first.
	FindActiveOwners(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
}
