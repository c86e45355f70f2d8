package store

import (
	"context"
	"fmt"

	"github.com/shelfscape/backend/internal/models"
)

const shelfColumns = `b.id, b.owner_id, b.name, b.description, b.is_public,
	(SELECT COUNT(*) FROM shelf_books sb WHERE sb.shelf_id = b.id),
	b.created_at, b.updated_at`

// ShelfUpdate carries the optional fields of a partial shelf update.
type ShelfUpdate struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// IsZero reports whether the update changes nothing.
func (u ShelfUpdate) IsZero() bool {
	return u.Name == nil && u.Description == nil && u.IsPublic == nil
}

func (s *PostgresStore) ListShelves(ctx context.Context, ownerID int64) ([]models.Bookshelf, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+shelfColumns+` FROM bookshelves b
		 WHERE b.owner_id = $1 ORDER BY b.created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShelves(rows)
}

// ListVisibleShelves returns another user's shelves subject to the
// visibility rule: everything when includePrivate (owner or accepted
// friend), public shelves only otherwise.
func (s *PostgresStore) ListVisibleShelves(ctx context.Context, ownerID int64, includePrivate bool) ([]models.Bookshelf, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+shelfColumns+` FROM bookshelves b
		 WHERE b.owner_id = $1 AND (b.is_public OR $2)
		 ORDER BY b.created_at DESC`, ownerID, includePrivate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShelves(rows)
}

func (s *PostgresStore) ListPublicShelves(ctx context.Context) ([]models.Bookshelf, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+shelfColumns+` FROM bookshelves b
		 WHERE b.is_public ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShelves(rows)
}

// GetShelf returns a shelf with its books. A shelf owned by someone
// else is reported as ErrNotFound, identical to a missing one.
func (s *PostgresStore) GetShelf(ctx context.Context, ownerID, shelfID int64) (*models.BookshelfDetail, error) {
	return s.getShelfDetail(ctx,
		`SELECT `+shelfColumns+` FROM bookshelves b WHERE b.id = $1 AND b.owner_id = $2`,
		shelfID, ownerID)
}

// GetPublicShelf returns a shelf with its books only if it is public.
func (s *PostgresStore) GetPublicShelf(ctx context.Context, shelfID int64) (*models.BookshelfDetail, error) {
	return s.getShelfDetail(ctx,
		`SELECT `+shelfColumns+` FROM bookshelves b WHERE b.id = $1 AND b.is_public`,
		shelfID)
}

func (s *PostgresStore) getShelfDetail(ctx context.Context, query string, args ...any) (*models.BookshelfDetail, error) {
	var d models.BookshelfDetail
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&d.ID, &d.OwnerID, &d.Name, &d.Description, &d.IsPublic,
		&d.BookCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT bk.id, bk.title, bk.authors, bk.isbn, bk.cover_url, bk.created_at
		 FROM books bk
		 JOIN shelf_books sb ON sb.book_id = bk.id
		 WHERE sb.shelf_id = $1
		 ORDER BY bk.created_at`, d.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	d.Books = []models.Book{}
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Authors, &b.ISBN, &b.CoverURL, &b.AddedAt); err != nil {
			return nil, err
		}
		d.Books = append(d.Books, b)
	}
	return &d, rows.Err()
}

func (s *PostgresStore) CreateShelf(ctx context.Context, ownerID int64, name, description string, isPublic bool) (*models.Bookshelf, error) {
	var sh models.Bookshelf
	err := s.pool.QueryRow(ctx,
		`INSERT INTO bookshelves (owner_id, name, description, is_public)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, owner_id, name, description, is_public, 0, created_at, updated_at`,
		ownerID, name, description, isPublic,
	).Scan(&sh.ID, &sh.OwnerID, &sh.Name, &sh.Description, &sh.IsPublic,
		&sh.BookCount, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create shelf: %w", err)
	}
	return &sh, nil
}

func (s *PostgresStore) UpdateShelf(ctx context.Context, ownerID, shelfID int64, upd ShelfUpdate) (*models.Bookshelf, error) {
	var sh models.Bookshelf
	err := s.pool.QueryRow(ctx,
		`UPDATE bookshelves b SET
			name        = COALESCE($3, name),
			description = COALESCE($4, description),
			is_public   = COALESCE($5, is_public),
			updated_at  = NOW()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING id, owner_id, name, description, is_public,
			(SELECT COUNT(*) FROM shelf_books sb WHERE sb.shelf_id = b.id),
			created_at, updated_at`,
		shelfID, ownerID, upd.Name, upd.Description, upd.IsPublic,
	).Scan(&sh.ID, &sh.OwnerID, &sh.Name, &sh.Description, &sh.IsPublic,
		&sh.BookCount, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update shelf: %w", err)
	}
	return &sh, nil
}

func (s *PostgresStore) DeleteShelf(ctx context.Context, ownerID, shelfID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM bookshelves WHERE id = $1 AND owner_id = $2`, shelfID, ownerID)
	if err != nil {
		return fmt.Errorf("delete shelf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBook inserts a book and attaches it to a shelf the user owns.
func (s *PostgresStore) AddBook(ctx context.Context, ownerID, shelfID int64, title, authors, isbn, coverURL string) (*models.Book, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}
	defer tx.Rollback(ctx)

	var owned bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookshelves WHERE id = $1 AND owner_id = $2)`,
		shelfID, ownerID,
	).Scan(&owned)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrNotFound
	}

	var b models.Book
	err = tx.QueryRow(ctx,
		`INSERT INTO books (title, authors, isbn, cover_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, title, authors, isbn, cover_url, created_at`,
		title, authors, isbn, coverURL,
	).Scan(&b.ID, &b.Title, &b.Authors, &b.ISBN, &b.CoverURL, &b.AddedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("add book: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO shelf_books (shelf_id, book_id) VALUES ($1, $2)`, shelfID, b.ID); err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}
	return &b, nil
}

// RemoveBook deletes a book when some shelf of the acting user contains
// it. Ownership is verified transitively through the shelf.
func (s *PostgresStore) RemoveBook(ctx context.Context, ownerID, bookID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM books bk
		 WHERE bk.id = $1 AND EXISTS (
			SELECT 1 FROM shelf_books sb
			JOIN bookshelves b ON b.id = sb.shelf_id
			WHERE sb.book_id = bk.id AND b.owner_id = $2
		 )`, bookID, ownerID)
	if err != nil {
		return fmt.Errorf("remove book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type shelfRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanShelves(rows shelfRows) ([]models.Bookshelf, error) {
	shelves := []models.Bookshelf{}
	for rows.Next() {
		var sh models.Bookshelf
		if err := rows.Scan(&sh.ID, &sh.OwnerID, &sh.Name, &sh.Description,
			&sh.IsPublic, &sh.BookCount, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
			return nil, err
		}
		shelves = append(shelves, sh)
	}
	return shelves, rows.Err()
}
