package models

import "time"

// Bookshelf is a named, owned collection of books with a visibility flag.
type Bookshelf struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	BookCount   int       `json:"book_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Book is a single entry on a shelf. Books are per-shelf copies, not
// canonical catalog records; the same title added to two shelves yields
// two rows.
type Book struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Authors  string    `json:"author"`
	ISBN     string    `json:"isbn"`
	CoverURL string    `json:"cover_image_url"`
	AddedAt  time.Time `json:"added_at"`
}

// BookshelfDetail is a shelf together with its books.
type BookshelfDetail struct {
	Bookshelf
	Books []Book `json:"books"`
}

// AddBookRequest is the JSON body for POST /api/bookshelves/{id}/books.
type AddBookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	CoverURL string `json:"cover_image_url"`
}
