package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/flowrev/internal/server/models"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/repomanager"
)

type CommentService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewCommentService(m repomanager.RepositoryManager) *CommentService {
	return &CommentService{repomanager: m, now: time.Now}
}

// Add appends a comment stamped with the current server time. It returns
// common.ErrorNotFound if the card does not exist.
func (s *CommentService) Add(ctx context.Context, cardID int64, text, author string) (*models.Comment, error) {
	if _, err := s.repomanager.Cards().GetByID(ctx, cardID); err != nil {
		return nil, err
	}

	c := models.NewComment(cardID, text, author, s.now().UTC())
	if err := s.repomanager.Comments().Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the card's comments in insertion order.
func (s *CommentService) List(ctx context.Context, cardID int64) ([]*models.Comment, error) {
	return s.repomanager.Comments().FindByCardID(ctx, cardID)
}
