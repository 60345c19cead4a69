package implementation

import (
	"context"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/mapper"
	"newsbox-topics/internal/model"
	"newsbox-topics/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TopicEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TopicMapper
}

func NewTopicEventRepository(db *gorm.DB) contract.TopicEventRepository {
	return &TopicEventRepositoryImpl{
		db:     db,
		mapper: mapper.NewTopicMapper(),
	}
}

func (r *TopicEventRepositoryImpl) FindByTopic(ctx context.Context, topicId uuid.UUID) ([]*entity.TopicEvent, error) {
	var rows []*model.TopicEvent
	if err := r.db.WithContext(ctx).
		Where("topic_id = ?", topicId).
		Order("event_time ASC").Order("fingerprint ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.mapper.EventsToEntities(rows), nil
}

// ReplaceForTopic drops the topic's events and writes the new set. Callers run it inside a transaction.
func (r *TopicEventRepositoryImpl) ReplaceForTopic(ctx context.Context, topicId uuid.UUID, events []*entity.TopicEvent) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("topic_id = ?", topicId).Delete(&model.TopicEvent{}).Error; err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	rows := make([]*model.TopicEvent, len(events))
	for i, e := range events {
		e.TopicId = topicId
		rows[i] = r.mapper.EventToModel(e)
	}
	return db.CreateInBatches(rows, 200).Error
}
