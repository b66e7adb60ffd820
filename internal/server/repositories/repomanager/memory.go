package repomanager

import (
	"context"

	"github.com/dmitrijs2005/flowrev/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/cards"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/comments"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/memory"
)

// InMemoryRepositoryManager keeps all rows in process memory. Data is lost on
// restart.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}

func (m *InMemoryRepositoryManager) Cards() cards.Repository { return m.store.Cards() }
func (m *InMemoryRepositoryManager) Attachments() attachments.Repository {
	return m.store.Attachments()
}
func (m *InMemoryRepositoryManager) Comments() comments.Repository { return m.store.Comments() }

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Close() error { return nil }

type memRepos struct {
	cards       *memory.Cards
	attachments *memory.Attachments
	comments    *memory.Comments
}

func (r memRepos) Cards() cards.Repository             { return r.cards }
func (r memRepos) Attachments() attachments.Repository { return r.attachments }
func (r memRepos) Comments() comments.Repository       { return r.comments }

// InTx runs fn while holding the store's write lock; changes are discarded
// when fn fails.
func (m *InMemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return m.store.Atomically(func(c *memory.Cards, a *memory.Attachments, cm *memory.Comments) error {
		return fn(ctx, memRepos{cards: c, attachments: a, comments: cm})
	})
}

var (
	_ RepositoryManager = (*InMemoryRepositoryManager)(nil)
	_ RepositoryManager = (*PostgresRepositoryManager)(nil)
)
