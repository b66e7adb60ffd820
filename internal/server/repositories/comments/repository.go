package comments

import (
	"context"

	"github.com/dmitrijs2005/flowrev/internal/server/models"
)

type Repository interface {
	// Create stores c and assigns its id; common.ErrorNotFound if the card is gone.
	Create(ctx context.Context, c *models.Comment) error
	FindByCardID(ctx context.Context, cardID int64) ([]*models.Comment, error)
	DeleteByCardID(ctx context.Context, cardID int64) error
}
