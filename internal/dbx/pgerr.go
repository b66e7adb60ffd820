package dbx

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsForeignKeyViolation reports whether err carries a PostgreSQL
// foreign_key_violation, e.g. a comment inserted for a card that was deleted
// in the meantime.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, pgerrcode.ForeignKeyViolation)
}

// IsStringTooLong reports whether err is a PostgreSQL string_data_right_truncation.
func IsStringTooLong(err error) bool {
	return hasCode(err, pgerrcode.StringDataRightTruncationDataException)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
