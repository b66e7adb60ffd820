// Package services contains the board's business logic: card lifecycle,
// attachment uploads and comment threads. Services translate repository
// results into the sentinel errors of internal/common.
package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/flowrev/internal/common"
	"github.com/dmitrijs2005/flowrev/internal/logging"
	"github.com/dmitrijs2005/flowrev/internal/server/cache"
	"github.com/dmitrijs2005/flowrev/internal/server/models"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/flowrev/internal/timex"
)

// CardDetails is a partial update of a card. Nil fields are left unchanged.
type CardDetails struct {
	Title       *string
	Description *string
	DueDate     *timex.Date
	Assignee    *string
}

// CardService manages cards and keeps the board cache coherent.
type CardService struct {
	repomanager repomanager.RepositoryManager
	cache       *cache.BoardCache
	log         logging.Logger
}

// NewCardService constructs a CardService. board may be nil to disable caching.
func NewCardService(m repomanager.RepositoryManager, board *cache.BoardCache, log logging.Logger) *CardService {
	return &CardService{
		repomanager: m,
		cache:       board,
		log:         log.With("module", "cards"),
	}
}

// List returns every card in ascending id order.
func (s *CardService) List(ctx context.Context) ([]*models.Card, error) {
	cards, gen, ok := s.cache.Load(ctx)
	if ok {
		return cards, nil
	}

	cards, err := s.repomanager.Cards().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Store(ctx, gen, cards)
	return cards, nil
}

func (s *CardService) Get(ctx context.Context, id int64) (*models.Card, error) {
	return s.repomanager.Cards().GetByID(ctx, id)
}

// Create stores a new card with only a title and a column.
func (s *CardService) Create(ctx context.Context, title, column string) (*models.Card, error) {
	card := &models.Card{Title: title, Column: column}
	if err := s.repomanager.Cards().Save(ctx, card); err != nil {
		return nil, err
	}
	s.cache.Evict(ctx)
	s.log.Debug(ctx, "card created", "id", card.ID, "coluna", column)
	return card, nil
}

// Move changes the card's column.
func (s *CardService) Move(ctx context.Context, id int64, column string) (*models.Card, error) {
	repo := s.repomanager.Cards()

	card, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	card.Column = column
	if err := repo.Save(ctx, card); err != nil {
		return nil, err
	}
	s.cache.Evict(ctx)
	s.log.Debug(ctx, "card moved", "id", id, "coluna", column)
	return card, nil
}

// UpdateDetails overwrites the non-nil fields of d. The column is never
// touched here; use Move.
func (s *CardService) UpdateDetails(ctx context.Context, id int64, d CardDetails) (*models.Card, error) {
	if d.Description != nil && utf8.RuneCountInString(*d.Description) > models.MaxDescriptionLength {
		return nil, fmt.Errorf("%w: descricao exceeds %d characters", common.ErrorValidation, models.MaxDescriptionLength)
	}

	repo := s.repomanager.Cards()
	card, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.Title != nil {
		card.Title = *d.Title
	}
	if d.Description != nil {
		card.Description = d.Description
	}
	if d.DueDate != nil {
		card.DueDate = d.DueDate
	}
	if d.Assignee != nil {
		card.Assignee = d.Assignee
	}

	if err := repo.Save(ctx, card); err != nil {
		return nil, err
	}
	s.cache.Evict(ctx)
	return card, nil
}

// Delete removes the card with its comments and attachment records in one
// transaction. Attachment blobs are kept.
func (s *CardService) Delete(ctx context.Context, id int64) error {
	err := s.repomanager.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if _, err := repos.Cards().GetByID(ctx, id); err != nil {
			return err
		}
		if err := repos.Comments().DeleteByCardID(ctx, id); err != nil {
			return err
		}
		if err := repos.Attachments().DeleteByCardID(ctx, id); err != nil {
			return err
		}
		return repos.Cards().DeleteByID(ctx, id)
	})
	if err != nil {
		return err
	}
	s.cache.Evict(ctx)
	s.log.Info(ctx, "card deleted", "id", id)
	return nil
}
