package contract

import (
	"context"
	"time"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/repository/specification"

	"github.com/google/uuid"
)

type TopicRepository interface {
	Create(ctx context.Context, topic *entity.Topic) error
	Update(ctx context.Context, topic *entity.Topic) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Topic, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Topic, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// ArchiveStale archives the user's unpinned topics whose last ingestion (or creation) is before cutoff.
	ArchiveStale(ctx context.Context, userId uuid.UUID, cutoff, now time.Time) (int64, error)
}

type TopicMembershipRepository interface {
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TopicMembership, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicMembership, error)
	Upsert(ctx context.Context, memberships []*entity.TopicMembership) error
	DeleteAuto(ctx context.Context, topicId uuid.UUID) error
	CountIncluded(ctx context.Context, topicId uuid.UUID) (int64, error)
}

type TopicEventRepository interface {
	FindByTopic(ctx context.Context, topicId uuid.UUID) ([]*entity.TopicEvent, error)
	ReplaceForTopic(ctx context.Context, topicId uuid.UUID, events []*entity.TopicEvent) error
}
