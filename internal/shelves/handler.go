// Package shelves holds the bookshelf and book HTTP handlers,
// including the public browsing routes and the friend-visibility rule.
package shelves

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shelfscape/backend/internal/api"
	"github.com/shelfscape/backend/internal/middleware"
	"github.com/shelfscape/backend/internal/models"
	"github.com/shelfscape/backend/internal/store"
)

// ShelfStore defines the interface for shelf and book persistence.
type ShelfStore interface {
	ListShelves(ctx context.Context, ownerID int64) ([]models.Bookshelf, error)
	ListVisibleShelves(ctx context.Context, ownerID int64, includePrivate bool) ([]models.Bookshelf, error)
	ListPublicShelves(ctx context.Context) ([]models.Bookshelf, error)
	GetShelf(ctx context.Context, ownerID, shelfID int64) (*models.BookshelfDetail, error)
	GetPublicShelf(ctx context.Context, shelfID int64) (*models.BookshelfDetail, error)
	CreateShelf(ctx context.Context, ownerID int64, name, description string, isPublic bool) (*models.Bookshelf, error)
	UpdateShelf(ctx context.Context, ownerID, shelfID int64, upd store.ShelfUpdate) (*models.Bookshelf, error)
	DeleteShelf(ctx context.Context, ownerID, shelfID int64) error
	AddBook(ctx context.Context, ownerID, shelfID int64, title, authors, isbn, coverURL string) (*models.Book, error)
	RemoveBook(ctx context.Context, ownerID, bookID int64) error
}

// FriendChecker reports whether two users are linked by an accepted
// friend edge.
type FriendChecker interface {
	AreFriends(ctx context.Context, userA, userB int64) (bool, error)
}

// Handler holds shelf and book HTTP handlers.
type Handler struct {
	shelves ShelfStore
	friends FriendChecker
}

func NewHandler(shelves ShelfStore, friends FriendChecker) *Handler {
	return &Handler{shelves: shelves, friends: friends}
}

const notFoundMsg = "Bookshelf not found or access denied"

// List returns the authenticated user's shelves.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	shelves, err := h.shelves.ListShelves(r.Context(), userID)
	if err != nil {
		api.StoreError(w, err, notFoundMsg, "")
		return
	}
	api.WriteJSON(w, http.StatusOK, shelves)
}

// Create makes a new shelf for the authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPublic    bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		api.Error(w, http.StatusBadRequest, "Bookshelf name is required")
		return
	}

	shelf, err := h.shelves.CreateShelf(r.Context(), userID, name,
		strings.TrimSpace(req.Description), req.IsPublic)
	if err != nil {
		api.StoreError(w, err, notFoundMsg,
			fmt.Sprintf("Bookshelf with name %q already exists", name))
		return
	}
	api.WriteJSON(w, http.StatusCreated, shelf)
}

// Get returns an owned shelf with its books.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	shelfID, err := pathID(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid bookshelf id")
		return
	}

	detail, err := h.shelves.GetShelf(r.Context(), userID, shelfID)
	if err != nil {
		api.StoreError(w, err, notFoundMsg, "")
		return
	}
	api.WriteJSON(w, http.StatusOK, detail)
}

// Update applies a partial update to an owned shelf.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	shelfID, err := pathID(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid bookshelf id")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Request body is required for update")
		return
	}

	upd := store.ShelfUpdate{Description: req.Description, IsPublic: req.IsPublic}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			api.Error(w, http.StatusBadRequest, "Bookshelf name cannot be empty")
			return
		}
		upd.Name = &name
	}
	if upd.IsZero() {
		api.Message(w, http.StatusOK, "No changes provided to update.")
		return
	}

	shelf, err := h.shelves.UpdateShelf(r.Context(), userID, shelfID, upd)
	if err != nil {
		conflict := "Another bookshelf with that name already exists"
		if upd.Name != nil {
			conflict = fmt.Sprintf("Another bookshelf named %q already exists", *upd.Name)
		}
		api.StoreError(w, err, notFoundMsg, conflict)
		return
	}
	api.WriteJSON(w, http.StatusOK, shelf)
}

// Delete removes an owned shelf; book associations cascade.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	shelfID, err := pathID(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid bookshelf id")
		return
	}

	if err := h.shelves.DeleteShelf(r.Context(), userID, shelfID); err != nil {
		api.StoreError(w, err, notFoundMsg, "")
		return
	}
	api.Message(w, http.StatusOK, "Bookshelf deleted successfully")
}

// AddBook puts a new book on an owned shelf.
func (h *Handler) AddBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	shelfID, err := pathID(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid bookshelf id")
		return
	}

	var req models.AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		api.Error(w, http.StatusBadRequest, "Book title is required")
		return
	}

	book, err := h.shelves.AddBook(r.Context(), userID, shelfID, title,
		strings.TrimSpace(req.Author), strings.TrimSpace(req.ISBN), strings.TrimSpace(req.CoverURL))
	if err != nil {
		api.StoreError(w, err, notFoundMsg, "A book with that ISBN already exists")
		return
	}
	api.WriteJSON(w, http.StatusCreated, book)
}

// RemoveBook deletes a book; ownership is verified through the shelf.
func (h *Handler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	bookID, err := pathID(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid book id")
		return
	}

	if err := h.shelves.RemoveBook(r.Context(), userID, bookID); err != nil {
		api.StoreError(w, err, "Book not found or access denied", "")
		return
	}
	api.Message(w, http.StatusOK, "Book deleted successfully")
}

// PublicList returns every public shelf; no authentication required.
func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	shelves, err := h.shelves.ListPublicShelves(r.Context())
	if err != nil {
		api.StoreError(w, err, notFoundMsg, "")
		return
	}
	api.WriteJSON(w, http.StatusOK, shelves)
}

// PublicGet returns one public shelf with its books.
func (h *Handler) PublicGet(w http.ResponseWriter, r *http.Request) {
	shelfID, err := pathID(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid bookshelf id")
		return
	}

	detail, err := h.shelves.GetPublicShelf(r.Context(), shelfID)
	if err != nil {
		api.StoreError(w, err, notFoundMsg, "")
		return
	}
	api.WriteJSON(w, http.StatusOK, detail)
}

// UserShelves returns another user's shelves per the visibility rule:
// the owner and accepted friends see everything, anyone else sees only
// public shelves.
func (h *Handler) UserShelves(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.UserID(r.Context())
	ownerID, err := pathID(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	includePrivate := viewerID == ownerID
	if !includePrivate {
		friends, err := h.friends.AreFriends(r.Context(), viewerID, ownerID)
		if err != nil {
			api.StoreError(w, err, notFoundMsg, "")
			return
		}
		includePrivate = friends
	}

	shelves, err := h.shelves.ListVisibleShelves(r.Context(), ownerID, includePrivate)
	if err != nil {
		api.StoreError(w, err, notFoundMsg, "")
		return
	}
	api.WriteJSON(w, http.StatusOK, shelves)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
