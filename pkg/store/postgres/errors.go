package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE codes the service and the test harness care about.
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeInvalidCatalogName  = "3D000" // database does not exist
	CodeObjectInUse         = "55006" // e.g. DROP DATABASE with open sessions
	CodeDuplicateDatabase   = "42P04"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
)

// ErrorCode returns the SQLSTATE of err, or "" when err does not come
// from the server.
func ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapPgError converts driver errors into the package sentinels, keeping
// the original in the chain.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	switch ErrorCode(err) {
	case CodeUniqueViolation:
		return errors.Join(ErrAlreadyExists, err)
	case CodeForeignKeyViolation:
		return errors.Join(ErrNotFound, err)
	}
	return err
}
