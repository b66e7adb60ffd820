package cards

import (
	"context"

	"github.com/dmitrijs2005/flowrev/internal/server/models"
)

// Repository persists board cards.
type Repository interface {
	GetAll(ctx context.Context) ([]*models.Card, error)
	// GetByID returns common.ErrorNotFound when no card has the id.
	GetByID(ctx context.Context, id int64) (*models.Card, error)
	// Save inserts the card when its ID is zero and assigns the generated id;
	// otherwise it overwrites the stored row.
	Save(ctx context.Context, card *models.Card) error
	DeleteByID(ctx context.Context, id int64) error
}
