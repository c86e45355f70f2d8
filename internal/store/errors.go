package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means the row does not exist or is not visible to the
	// acting user. Callers must not distinguish the two cases.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means a uniqueness constraint was violated
	// (identity, shelf name per owner, community name, friend pair).
	ErrDuplicate = errors.New("duplicate")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
