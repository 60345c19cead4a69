package mapper

import (
	"time"

	"newsbox-topics/internal/entity"
	"newsbox-topics/internal/model"
)

// NoteMapper only reads: notes are written by the note service, never by topic rebuilds.
type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

func (m *NoteMapper) ToEntity(n *model.Note) *entity.Note {
	if n == nil {
		return nil
	}

	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}

	return &entity.Note{
		Id:          n.Id,
		Title:       n.Title,
		Excerpt:     n.Excerpt,
		Content:     n.Content,
		PublishedAt: n.PublishedAt,
		NotebookId:  n.NotebookId,
		UserId:      n.UserId,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *NoteMapper) ToEntities(notes []*model.Note) []*entity.Note {
	entities := make([]*entity.Note, len(notes))
	for i, n := range notes {
		entities[i] = m.ToEntity(n)
	}
	return entities
}
