// Package comments stores card discussion messages (table comentarios).
package comments

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

func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comentarios (texto, autor, data_hora, cartao_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, c.Text, c.Author, c.CreatedAt, c.CardID).Scan(&c.ID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByCardID returns the card's comments oldest first.
func (r *PostgresRepository) FindByCardID(ctx context.Context, cardID int64) ([]*models.Comment, error) {
	query := `
		SELECT id, texto, autor, data_hora, cartao_id
		FROM comentarios
		WHERE cartao_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to select comments: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.Author, &c.CreatedAt, &c.CardID); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByCardID(ctx context.Context, cardID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM comentarios WHERE cartao_id = $1`, cardID); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	return nil
}
