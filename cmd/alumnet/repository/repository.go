package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/alumnet/alumnet/common/db"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// Storage-level sentinel errors. Services translate these into their own
// error taxonomy; repositories never decide HTTP semantics.
var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicatePair means a live edge already occupies the pair slot.
	ErrDuplicatePair = errors.New("repository: duplicate pair")
	// ErrDuplicateCode means a minted code value collided with an existing one.
	ErrDuplicateCode = errors.New("repository: duplicate code")
)

// InitSchema applies the embedded schema. Statements are idempotent, so this
// is safe to run on every startup.
func InitSchema(ctx context.Context, database *db.DB) error {
	if _, err := database.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
