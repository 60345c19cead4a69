package implementation

import (
	"context"
	"errors"
	"time"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/mapper"
	"newsbox-topics/internal/model"
	"newsbox-topics/internal/repository/contract"
	"newsbox-topics/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TopicRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TopicMapper
}

func NewTopicRepository(db *gorm.DB) contract.TopicRepository {
	return &TopicRepositoryImpl{
		db:     db,
		mapper: mapper.NewTopicMapper(),
	}
}

func (r *TopicRepositoryImpl) Create(ctx context.Context, topic *entity.Topic) error {
	m := r.mapper.ToModel(topic)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*topic = *r.mapper.ToEntity(m)
	return nil
}

func (r *TopicRepositoryImpl) Update(ctx context.Context, topic *entity.Topic) error {
	m := r.mapper.ToModel(topic)
	if err := r.db.WithContext(ctx).Omit("created_at").Save(m).Error; err != nil {
		return err
	}
	created := topic.CreatedAt
	*topic = *r.mapper.ToEntity(m)
	topic.CreatedAt = created
	return nil
}

func (r *TopicRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Topic, error) {
	var m model.Topic
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TopicRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Topic, error) {
	var models []*model.Topic
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TopicRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Topic{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TopicRepositoryImpl) ArchiveStale(ctx context.Context, userId uuid.UUID, cutoff, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Topic{}).
		Where("user_id = ? AND is_pinned = ? AND is_archived = ?", userId, false, false).
		Where("COALESCE(last_ingested_at, created_at) < ?", cutoff).
		Updates(map[string]interface{}{"is_archived": true, "archived_at": now})
	return res.RowsAffected, res.Error
}
