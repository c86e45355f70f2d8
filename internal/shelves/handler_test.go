package shelves

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/shelfscape/backend/internal/middleware"
	"github.com/shelfscape/backend/internal/models"
	"github.com/shelfscape/backend/internal/store"
)

type fakeShelfStore struct {
	shelves     map[int64]*models.Bookshelf
	books       map[int64]*models.Book   // book id -> book
	shelfBooks  map[int64][]int64        // shelf id -> book ids
	nextShelfID int64
	nextBookID  int64
}

func newFakeShelfStore() *fakeShelfStore {
	return &fakeShelfStore{
		shelves:     map[int64]*models.Bookshelf{},
		books:       map[int64]*models.Book{},
		shelfBooks:  map[int64][]int64{},
		nextShelfID: 1,
		nextBookID:  1,
	}
}

func (f *fakeShelfStore) ListShelves(_ context.Context, ownerID int64) ([]models.Bookshelf, error) {
	out := []models.Bookshelf{}
	for _, s := range f.shelves {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeShelfStore) ListVisibleShelves(_ context.Context, ownerID int64, includePrivate bool) ([]models.Bookshelf, error) {
	out := []models.Bookshelf{}
	for _, s := range f.shelves {
		if s.OwnerID != ownerID {
			continue
		}
		if s.IsPublic || includePrivate {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeShelfStore) ListPublicShelves(_ context.Context) ([]models.Bookshelf, error) {
	out := []models.Bookshelf{}
	for _, s := range f.shelves {
		if s.IsPublic {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeShelfStore) detail(shelfID int64) *models.BookshelfDetail {
	s := f.shelves[shelfID]
	books := []models.Book{}
	for _, id := range f.shelfBooks[shelfID] {
		books = append(books, *f.books[id])
	}
	return &models.BookshelfDetail{Bookshelf: *s, Books: books}
}

func (f *fakeShelfStore) GetShelf(_ context.Context, ownerID, shelfID int64) (*models.BookshelfDetail, error) {
	s, ok := f.shelves[shelfID]
	if !ok || s.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return f.detail(shelfID), nil
}

func (f *fakeShelfStore) GetPublicShelf(_ context.Context, shelfID int64) (*models.BookshelfDetail, error) {
	s, ok := f.shelves[shelfID]
	if !ok || !s.IsPublic {
		return nil, store.ErrNotFound
	}
	return f.detail(shelfID), nil
}

func (f *fakeShelfStore) CreateShelf(_ context.Context, ownerID int64, name, description string, isPublic bool) (*models.Bookshelf, error) {
	for _, s := range f.shelves {
		if s.OwnerID == ownerID && s.Name == name {
			return nil, store.ErrDuplicate
		}
	}
	s := &models.Bookshelf{
		ID: f.nextShelfID, OwnerID: ownerID, Name: name,
		Description: description, IsPublic: isPublic, CreatedAt: time.Now(),
	}
	f.shelves[s.ID] = s
	f.nextShelfID++
	return s, nil
}

func (f *fakeShelfStore) UpdateShelf(_ context.Context, ownerID, shelfID int64, upd store.ShelfUpdate) (*models.Bookshelf, error) {
	s, ok := f.shelves[shelfID]
	if !ok || s.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	if upd.Name != nil {
		for _, other := range f.shelves {
			if other.ID != shelfID && other.OwnerID == ownerID && other.Name == *upd.Name {
				return nil, store.ErrDuplicate
			}
		}
		s.Name = *upd.Name
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.IsPublic != nil {
		s.IsPublic = *upd.IsPublic
	}
	return s, nil
}

func (f *fakeShelfStore) DeleteShelf(_ context.Context, ownerID, shelfID int64) error {
	s, ok := f.shelves[shelfID]
	if !ok || s.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(f.shelves, shelfID)
	delete(f.shelfBooks, shelfID)
	return nil
}

func (f *fakeShelfStore) AddBook(_ context.Context, ownerID, shelfID int64, title, authors, isbn, coverURL string) (*models.Book, error) {
	s, ok := f.shelves[shelfID]
	if !ok || s.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	b := &models.Book{
		ID: f.nextBookID, Title: title, Authors: authors,
		ISBN: isbn, CoverURL: coverURL, AddedAt: time.Now(),
	}
	f.books[b.ID] = b
	f.shelfBooks[shelfID] = append(f.shelfBooks[shelfID], b.ID)
	f.nextBookID++
	return b, nil
}

func (f *fakeShelfStore) RemoveBook(_ context.Context, ownerID, bookID int64) error {
	for shelfID, ids := range f.shelfBooks {
		for i, id := range ids {
			if id != bookID {
				continue
			}
			if f.shelves[shelfID].OwnerID != ownerID {
				return store.ErrNotFound
			}
			f.shelfBooks[shelfID] = append(ids[:i], ids[i+1:]...)
			delete(f.books, bookID)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeFriendChecker struct {
	pairs map[[2]int64]bool
}

func (f *fakeFriendChecker) AreFriends(_ context.Context, userA, userB int64) (bool, error) {
	if userA > userB {
		userA, userB = userB, userA
	}
	return f.pairs[[2]int64{userA, userB}], nil
}

func newTestHandler() (*Handler, *fakeShelfStore, *fakeFriendChecker) {
	shelves := newFakeShelfStore()
	friends := &fakeFriendChecker{pairs: map[[2]int64]bool{}}
	return NewHandler(shelves, friends), shelves, friends
}

func authedReq(method, path string, asUser int64, payload any, params map[string]string) *http.Request {
	var body *bytes.Reader
	if payload != nil {
		buf, _ := json.Marshal(payload)
		body = bytes.NewReader(buf)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithUser(ctx, asUser, nil))
}

func idParam(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}

func TestCreateShelf(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := httptest.NewRecorder()
	h.Create(rec, authedReq(http.MethodPost, "/api/bookshelves", 1,
		map[string]any{"name": "  Sci-Fi  ", "description": "space stuff", "is_public": true}, nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var shelf models.Bookshelf
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shelf))
	require.Equal(t, "Sci-Fi", shelf.Name)
	require.True(t, shelf.IsPublic)
}

func TestCreateShelfRequiresName(t *testing.T) {
	h, _, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.Create(rec, authedReq(http.MethodPost, "/api/bookshelves", 1,
		map[string]any{"name": "   "}, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Bookshelf name is required")
}

func TestCreateShelfDuplicateName(t *testing.T) {
	h, shelves, _ := newTestHandler()
	_, err := shelves.CreateShelf(context.Background(), 1, "Sci-Fi", "", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Create(rec, authedReq(http.MethodPost, "/api/bookshelves", 1,
		map[string]any{"name": "Sci-Fi"}, nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), `Bookshelf with name \"Sci-Fi\" already exists`)
}

func TestGetShelfScopedToOwner(t *testing.T) {
	h, shelves, _ := newTestHandler()
	shelf, err := shelves.CreateShelf(context.Background(), 1, "Mine", "", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Get(rec, authedReq(http.MethodGet, "/api/bookshelves/1", 1, nil, idParam(shelf.ID)))
	require.Equal(t, http.StatusOK, rec.Code)

	// Another user gets the same response as a missing shelf.
	rec = httptest.NewRecorder()
	h.Get(rec, authedReq(http.MethodGet, "/api/bookshelves/1", 2, nil, idParam(shelf.ID)))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Bookshelf not found or access denied")
}

func TestUpdateShelf(t *testing.T) {
	h, shelves, _ := newTestHandler()
	shelf, err := shelves.CreateShelf(context.Background(), 1, "Old Name", "", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Update(rec, authedReq(http.MethodPut, "/api/bookshelves/1", 1,
		map[string]any{"name": "New Name", "is_public": true}, idParam(shelf.ID)))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Bookshelf
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "New Name", updated.Name)
	require.True(t, updated.IsPublic)
}

func TestUpdateShelfNoChanges(t *testing.T) {
	h, shelves, _ := newTestHandler()
	shelf, err := shelves.CreateShelf(context.Background(), 1, "Name", "desc", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Update(rec, authedReq(http.MethodPut, "/api/bookshelves/1", 1,
		map[string]any{}, idParam(shelf.ID)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No changes provided to update.")

	// Nothing changed.
	require.Equal(t, "Name", shelves.shelves[shelf.ID].Name)
}

func TestDeleteShelf(t *testing.T) {
	h, shelves, _ := newTestHandler()
	shelf, err := shelves.CreateShelf(context.Background(), 1, "Doomed", "", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Delete(rec, authedReq(http.MethodDelete, "/api/bookshelves/1", 1, nil, idParam(shelf.ID)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, shelves.shelves)
}

func TestAddAndRemoveBook(t *testing.T) {
	h, shelves, _ := newTestHandler()
	shelf, err := shelves.CreateShelf(context.Background(), 1, "Reading", "", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.AddBook(rec, authedReq(http.MethodPost, "/api/bookshelves/1/books", 1,
		models.AddBookRequest{Title: "Dune", Author: "Frank Herbert"}, idParam(shelf.ID)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var book models.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	require.Equal(t, "Dune", book.Title)

	// A stranger cannot remove it.
	rec = httptest.NewRecorder()
	h.RemoveBook(rec, authedReq(http.MethodDelete, "/api/books/1", 2, nil, idParam(book.ID)))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.RemoveBook(rec, authedReq(http.MethodDelete, "/api/books/1", 1, nil, idParam(book.ID)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, shelves.shelfBooks[shelf.ID])
}

func TestAddBookRequiresTitle(t *testing.T) {
	h, shelves, _ := newTestHandler()
	shelf, err := shelves.CreateShelf(context.Background(), 1, "Reading", "", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.AddBook(rec, authedReq(http.MethodPost, "/api/bookshelves/1/books", 1,
		models.AddBookRequest{Title: "  "}, idParam(shelf.ID)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Book title is required")
}

func TestPublicShelves(t *testing.T) {
	h, shelves, _ := newTestHandler()
	pub, err := shelves.CreateShelf(context.Background(), 1, "Public", "", true)
	require.NoError(t, err)
	priv, err := shelves.CreateShelf(context.Background(), 1, "Private", "", false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/public/bookshelves", nil)
	rec := httptest.NewRecorder()
	h.PublicList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []models.Bookshelf
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, pub.ID, listed[0].ID)

	// Detail of a private shelf is not reachable publicly.
	rec = httptest.NewRecorder()
	h.PublicGet(rec, authedReq(http.MethodGet, "/api/public/bookshelves/2", 0, nil, idParam(priv.ID)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserShelvesVisibility(t *testing.T) {
	h, shelves, friends := newTestHandler()
	_, err := shelves.CreateShelf(context.Background(), 1, "Public", "", true)
	require.NoError(t, err)
	_, err = shelves.CreateShelf(context.Background(), 1, "Private", "", false)
	require.NoError(t, err)

	countShelves := func(t *testing.T, viewer int64) int {
		t.Helper()
		rec := httptest.NewRecorder()
		h.UserShelves(rec, authedReq(http.MethodGet, "/api/users/1/bookshelves", viewer, nil, idParam(1)))
		require.Equal(t, http.StatusOK, rec.Code)
		var listed []models.Bookshelf
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
		return len(listed)
	}

	// The owner sees both shelves; a stranger only the public one.
	require.Equal(t, 2, countShelves(t, 1))
	require.Equal(t, 1, countShelves(t, 2))

	// An accepted friend sees both.
	friends.pairs[[2]int64{1, 2}] = true
	require.Equal(t, 2, countShelves(t, 2))
}

func TestInvalidIDs(t *testing.T) {
	h, _, _ := newTestHandler()
	for name, call := range map[string]func(http.ResponseWriter, *http.Request){
		"get":    h.Get,
		"update": h.Update,
		"delete": h.Delete,
	} {
		rec := httptest.NewRecorder()
		call(rec, authedReq(http.MethodGet, "/api/bookshelves/abc", 1,
			map[string]any{}, map[string]string{"id": "abc"}))
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

