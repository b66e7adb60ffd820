// Package attachments stores attachment metadata rows (table anexos).
package attachments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/flowrev/internal/common"
	"github.com/dmitrijs2005/flowrev/internal/dbx"
	"github.com/dmitrijs2005/flowrev/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Attachment) error {
	query := `
		INSERT INTO anexos (nome_arquivo, caminho_no_disco, url_publica, cartao_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, a.FileName, a.Location, a.PublicURL, a.CardID).Scan(&a.ID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByCardID(ctx context.Context, cardID int64) ([]*models.Attachment, error) {
	query := `
		SELECT id, nome_arquivo, caminho_no_disco, url_publica, cartao_id
		FROM anexos
		WHERE cartao_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to select attachments: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Attachment, 0)
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.FileName, &a.Location, &a.PublicURL, &a.CardID); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByCardID removes every attachment row of the card. Deleting nothing is not an error.
func (r *PostgresRepository) DeleteByCardID(ctx context.Context, cardID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM anexos WHERE cartao_id = $1`, cardID); err != nil {
		return fmt.Errorf("failed to delete attachments: %w", err)
	}
	return nil
}
