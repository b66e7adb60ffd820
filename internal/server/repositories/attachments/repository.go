package attachments

import (
	"context"

	"github.com/dmitrijs2005/flowrev/internal/server/models"
)

// Repository persists attachment metadata. File bytes are kept by the blob store.
type Repository interface {
	// Create stores a and assigns its id. It returns common.ErrorNotFound if
	// a.CardID does not reference a card.
	Create(ctx context.Context, a *models.Attachment) error
	FindByCardID(ctx context.Context, cardID int64) ([]*models.Attachment, error)
	DeleteByCardID(ctx context.Context, cardID int64) error
}
