package unitofwork

import "context"

// RepositoryFactory hands out fresh units of work per request scope.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
