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

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	var m model.Note
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var models []*model.Note
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NoteRepositoryImpl) FindActiveOwners(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	query := r.db.WithContext(ctx).Model(&model.Note{}).
		Select("user_id").
		Where("updated_at >= ?", since).
		Group("user_id").
		Order("MAX(updated_at) DESC").
		Order("user_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("user_id", &owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}
