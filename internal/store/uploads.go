package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/shelfscape/backend/internal/models"
)

const (
	DetectedShelfName        = "Detected from Upload"
	RecommendationsShelfName = "Recommendations from Upload"

	detectedShelfDescription        = "Books automatically added from image uploads."
	recommendationsShelfDescription = "Book recommendations generated from uploads."
)

// UploadSave summarizes what a SaveUploadResults call added.
type UploadSave struct {
	AddedDetected    int
	AddedRecommended int
}

// SaveUploadResults persists detected titles and recommendations onto
// the two conventional shelves, creating either shelf if absent. Titles
// already present on the target shelf are skipped case-insensitively.
// Everything runs in one transaction; a failure rolls it all back.
func (s *PostgresStore) SaveUploadResults(ctx context.Context, userID int64, detected []string, recs []models.Recommendation) (UploadSave, error) {
	var summary UploadSave
	if len(detected) == 0 && len(recs) == 0 {
		return summary, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return summary, fmt.Errorf("save upload results: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(detected) > 0 {
		shelfID, err := findOrCreateShelf(ctx, tx, userID, DetectedShelfName, detectedShelfDescription)
		if err != nil {
			return summary, err
		}
		for _, title := range detected {
			added, err := addTitleIfAbsent(ctx, tx, shelfID, title, "", "")
			if err != nil {
				return summary, err
			}
			if added {
				summary.AddedDetected++
			}
		}
	}

	if len(recs) > 0 {
		shelfID, err := findOrCreateShelf(ctx, tx, userID, RecommendationsShelfName, recommendationsShelfDescription)
		if err != nil {
			return summary, err
		}
		for _, rec := range recs {
			if rec.Title == "" {
				continue
			}
			added, err := addTitleIfAbsent(ctx, tx, shelfID, rec.Title,
				strings.Join(rec.Authors, ", "), rec.Image)
			if err != nil {
				return summary, err
			}
			if added {
				summary.AddedRecommended++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return UploadSave{}, fmt.Errorf("save upload results: %w", err)
	}
	return summary, nil
}

// findOrCreateShelf resolves a conventional shelf by its fixed name.
// The upsert keeps two concurrent uploads from creating duplicate
// shelves for the same user.
func findOrCreateShelf(ctx context.Context, tx pgx.Tx, userID int64, name, description string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO bookshelves (owner_id, name, description)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id, name) DO UPDATE SET updated_at = NOW()
		 RETURNING id`,
		userID, name, description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("find or create shelf %q: %w", name, err)
	}
	return id, nil
}

func addTitleIfAbsent(ctx context.Context, tx pgx.Tx, shelfID int64, title, authors, coverURL string) (bool, error) {
	var present bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM books bk
			JOIN shelf_books sb ON sb.book_id = bk.id
			WHERE sb.shelf_id = $1 AND LOWER(bk.title) = LOWER($2)
		)`, shelfID, title,
	).Scan(&present)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	var bookID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO books (title, authors, cover_url) VALUES ($1, $2, $3) RETURNING id`,
		title, authors, coverURL,
	).Scan(&bookID)
	if err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO shelf_books (shelf_id, book_id) VALUES ($1, $2)`, shelfID, bookID); err != nil {
		return false, err
	}
	return true, nil
}
