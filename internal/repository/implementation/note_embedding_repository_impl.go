package implementation

import (
	"context"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/mapper"
	"newsbox-topics/internal/model"
	"newsbox-topics/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NoteEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteEmbeddingMapper
}

func NewNoteEmbeddingRepository(db *gorm.DB) contract.NoteEmbeddingRepository {
	return &NoteEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteEmbeddingMapper(),
	}
}

func (r *NoteEmbeddingRepositoryImpl) FindByNoteIds(ctx context.Context, noteIds []uuid.UUID) ([]*entity.NoteEmbedding, error) {
	if len(noteIds) == 0 {
		return nil, nil
	}
	var models []*model.NoteEmbedding
	if err := r.db.WithContext(ctx).Where("note_id IN ?", noteIds).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteEmbeddingRepositoryImpl) Upsert(ctx context.Context, records []*entity.NoteEmbedding) error {
	if len(records) == 0 {
		return nil
	}
	models := r.mapper.ToModels(records)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "note_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"model_id", "content_hash", "embedding_value", "updated_at"}),
	}).CreateInBatches(models, 100).Error
}
