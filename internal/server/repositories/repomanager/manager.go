package repomanager

import (
	"context"

	"github.com/dmitrijs2005/flowrev/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/cards"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/comments"
)

// Repositories groups the per-table repositories of one storage backend.
type Repositories interface {
	Cards() cards.Repository
	Attachments() attachments.Repository
	Comments() comments.Repository
}

// RepositoryManager owns a storage backend. Repositories returned directly
// operate outside of any transaction; InTx hands fn repositories that share
// one transaction, committed when fn returns nil.
type RepositoryManager interface {
	Repositories
	RunMigrations(ctx context.Context) error
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Close() error
}
