package implementation

import (
	"context"
	"errors"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/mapper"
	"newsbox-topics/internal/model"
	"newsbox-topics/internal/repository/contract"
	"newsbox-topics/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TopicMembershipRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TopicMapper
}

func NewTopicMembershipRepository(db *gorm.DB) contract.TopicMembershipRepository {
	return &TopicMembershipRepositoryImpl{
		db:     db,
		mapper: mapper.NewTopicMapper(),
	}
}

func (r *TopicMembershipRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TopicMembership, error) {
	var rows []*model.TopicMembership
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Order("note_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.MembershipsToEntities(rows), nil
}

func (r *TopicMembershipRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicMembership, error) {
	var row model.TopicMembership
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MembershipToEntity(&row), nil
}

// Upsert writes rows keyed by (topic, note); an existing row is overwritten except for its creation time.
func (r *TopicMembershipRepositoryImpl) Upsert(ctx context.Context, memberships []*entity.TopicMembership) error {
	if len(memberships) == 0 {
		return nil
	}
	rows := make([]*model.TopicMembership, len(memberships))
	for i, m := range memberships {
		rows[i] = r.mapper.MembershipToModel(m)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "topic_id"}, {Name: "note_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "source", "is_excluded", "event_time", "event_fingerprint", "evidence_rank", "updated_at",
		}),
	}).CreateInBatches(rows, 200).Error
}

func (r *TopicMembershipRepositoryImpl) DeleteAuto(ctx context.Context, topicId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("topic_id = ? AND source = ?", topicId, model.MembershipSourceAuto).
		Delete(&model.TopicMembership{}).Error
}

func (r *TopicMembershipRepositoryImpl) CountIncluded(ctx context.Context, topicId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TopicMembership{}).
		Where("topic_id = ? AND is_excluded = ?", topicId, false).
		Count(&count).Error
	return count, err
}
