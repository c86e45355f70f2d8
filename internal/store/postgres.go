package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore handles all relational persistence against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it doesn't exist. Uniqueness that the
// handlers rely on (case-insensitive identity, shelf name per owner,
// one friend edge per unordered pair, community name) is enforced here
// so concurrent read-then-write paths cannot create duplicates.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			username      VARCHAR(80)  NOT NULL,
			email         VARCHAR(120) NOT NULL,
			password_hash VARCHAR(256) NOT NULL,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx ON users (LOWER(username))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email))`,

		`CREATE TABLE IF NOT EXISTS bookshelves (
			id          BIGSERIAL PRIMARY KEY,
			owner_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name        VARCHAR(100) NOT NULL,
			description VARCHAR(250) NOT NULL DEFAULT '',
			is_public   BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (owner_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS books (
			id         BIGSERIAL PRIMARY KEY,
			title      VARCHAR(255) NOT NULL,
			authors    VARCHAR(255) NOT NULL DEFAULT '',
			isbn       VARCHAR(13)  NOT NULL DEFAULT '',
			cover_url  TEXT         NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS books_isbn_idx ON books (isbn) WHERE isbn <> ''`,

		`CREATE TABLE IF NOT EXISTS shelf_books (
			shelf_id BIGINT NOT NULL REFERENCES bookshelves(id) ON DELETE CASCADE,
			book_id  BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
			PRIMARY KEY (shelf_id, book_id)
		)`,

		`CREATE TABLE IF NOT EXISTS friend_requests (
			id           BIGSERIAL PRIMARY KEY,
			requester_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			addressee_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status       VARCHAR(10) NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'accepted', 'declined')),
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (requester_id <> addressee_id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS friend_requests_pair_idx ON friend_requests
			(LEAST(requester_id, addressee_id), GREATEST(requester_id, addressee_id))`,

		`CREATE TABLE IF NOT EXISTS communities (
			id          BIGSERIAL PRIMARY KEY,
			name        VARCHAR(100) UNIQUE NOT NULL,
			description VARCHAR(250) NOT NULL DEFAULT '',
			owner_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS community_members (
			community_id BIGINT NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
			user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (community_id, user_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
