// Package cards provides the PostgreSQL-backed repository for board cards.
package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/flowrev/internal/common"
	"github.com/dmitrijs2005/flowrev/internal/dbx"
	"github.com/dmitrijs2005/flowrev/internal/server/models"
	"github.com/dmitrijs2005/flowrev/internal/timex"
)

const cardColumns = `id, titulo, descricao, coluna, data_entrega, responsavel`

// PostgresRepository implements card storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	var c models.Card
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Column, &c.DueDate, &c.Assignee); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetAll returns every card ordered by id.
func (r *PostgresRepository) GetAll(ctx context.Context) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cartoes ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select cards: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Card, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the card with the given id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cartoes WHERE id=$1`
	c, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select card: %w", err)
	}
	return c, nil
}

// Save inserts a new card (ID == 0) or overwrites an existing one. Updating a
// missing id yields common.ErrorNotFound; a description longer than the
// column allows yields common.ErrorValidation.
func (r *PostgresRepository) Save(ctx context.Context, card *models.Card) error {
	if card.ID == 0 {
		return r.insert(ctx, card)
	}
	return r.update(ctx, card)
}

func (r *PostgresRepository) insert(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cartoes (titulo, descricao, coluna, data_entrega, responsavel)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		card.Title, card.Description, card.Column, dueDate(card.DueDate), card.Assignee,
	).Scan(&card.ID)
	if err != nil {
		return classify(err)
	}
	return nil
}

func (r *PostgresRepository) update(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE cartoes
		SET titulo=$1, descricao=$2, coluna=$3, data_entrega=$4, responsavel=$5
		WHERE id=$6`
	res, err := r.db.ExecContext(ctx, query,
		card.Title, card.Description, card.Column, dueDate(card.DueDate), card.Assignee, card.ID)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// DeleteByID removes the card row. Dependents are removed by the caller in
// the same transaction (and by ON DELETE CASCADE).
func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cartoes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func classify(err error) error {
	if dbx.IsStringTooLong(err) {
		return fmt.Errorf("%w: descricao exceeds %d characters", common.ErrorValidation, models.MaxDescriptionLength)
	}
	return fmt.Errorf("db error: %w", err)
}

func dueDate(d *timex.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}
