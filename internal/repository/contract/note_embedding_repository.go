package contract

import (
	"context"

	"newsbox-topics/internal/entity"

	"github.com/google/uuid"
)

type NoteEmbeddingRepository interface {
	FindByNoteIds(ctx context.Context, noteIds []uuid.UUID) ([]*entity.NoteEmbedding, error)
	// Upsert keeps exactly one record per note.
	Upsert(ctx context.Context, records []*entity.NoteEmbedding) error
}
