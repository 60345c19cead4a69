package entity

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id          uuid.UUID
	Title       string
	Excerpt     string
	Content     string
	PublishedAt string
	NotebookId  uuid.UUID
	UserId      uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type NoteEmbedding struct {
	Id          uuid.UUID
	NoteId      uuid.UUID
	ModelId     string
	ContentHash string
	Vector      []float32
	UpdatedAt   *time.Time
}
