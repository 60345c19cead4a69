package unitofwork

import "context"

// RepositoryFactory hands out a fresh unit of work per operation. Units of work are not safe for concurrent use,
// so parallel rebuild workers each take their own.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
