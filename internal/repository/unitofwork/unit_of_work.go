package unitofwork

import (
	"context"

	"newsbox-topics/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	NoteRepository() contract.NoteRepository
	NoteEmbeddingRepository() contract.NoteEmbeddingRepository
	TopicRepository() contract.TopicRepository
	TopicMembershipRepository() contract.TopicMembershipRepository
	TopicEventRepository() contract.TopicEventRepository
}
