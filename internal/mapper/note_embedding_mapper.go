package mapper

import (
	"time"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/model"

	"github.com/pgvector/pgvector-go"
)

type NoteEmbeddingMapper struct{}

func NewNoteEmbeddingMapper() *NoteEmbeddingMapper {
	return &NoteEmbeddingMapper{}
}

func (m *NoteEmbeddingMapper) ToEntity(e *model.NoteEmbedding) *entity.NoteEmbedding {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.NoteEmbedding{
		Id:          e.Id,
		NoteId:      e.NoteId,
		ModelId:     e.ModelId,
		ContentHash: e.ContentHash,
		Vector:      e.EmbeddingValue.Slice(),
		UpdatedAt:   updatedAt,
	}
}

func (m *NoteEmbeddingMapper) ToModel(e *entity.NoteEmbedding) *model.NoteEmbedding {
	if e == nil {
		return nil
	}
	return &model.NoteEmbedding{
		Id:             e.Id,
		NoteId:         e.NoteId,
		ModelId:        e.ModelId,
		ContentHash:    e.ContentHash,
		EmbeddingValue: pgvector.NewVector(e.Vector),
	}
}

func (m *NoteEmbeddingMapper) ToEntities(embeddings []*model.NoteEmbedding) []*entity.NoteEmbedding {
	entities := make([]*entity.NoteEmbedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

func (m *NoteEmbeddingMapper) ToModels(embeddings []*entity.NoteEmbedding) []*model.NoteEmbedding {
	models := make([]*model.NoteEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = m.ToModel(e)
	}
	return models
}
