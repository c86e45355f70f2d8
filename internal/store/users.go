package store

import (
	"context"
	"fmt"

	"github.com/shelfscape/backend/internal/models"
)

// CreateUser inserts a user and provisions their default bookshelf in
// one transaction.
func (s *PostgresStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	defer tx.Rollback(ctx)

	var u models.User
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, created_at`,
		username, email, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO bookshelves (owner_id, name) VALUES ($1, $2)`,
		u.ID, fmt.Sprintf("%s's Bookshelf", username),
	)
	if err != nil {
		return nil, fmt.Errorf("create default shelf: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// IdentityTaken reports whether the username or email is already in
// use, compared case-insensitively.
func (s *PostgresStore) IdentityTaken(ctx context.Context, username, email string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM users
			WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2)
		)`, username, email,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("identity check: %w", err)
	}
	return taken, nil
}

// GetUserByIdentifier looks a user up by username or email,
// case-insensitively. The password hash is included for verification.
func (s *PostgresStore) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users
		 WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)`,
		identifier,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
