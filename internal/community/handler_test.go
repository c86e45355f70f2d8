package community

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/shelfscape/backend/internal/middleware"
	"github.com/shelfscape/backend/internal/models"
	"github.com/shelfscape/backend/internal/store"
)

type fakeCommunityStore struct {
	communities map[int64]*models.Community
	members     map[int64]map[int64]bool // community id -> user ids
	nextID      int64
}

func newFakeCommunityStore() *fakeCommunityStore {
	return &fakeCommunityStore{
		communities: map[int64]*models.Community{},
		members:     map[int64]map[int64]bool{},
		nextID:      1,
	}
}

func (f *fakeCommunityStore) CreateCommunity(_ context.Context, ownerID int64, name, description string) (*models.Community, error) {
	for _, c := range f.communities {
		if strings.EqualFold(c.Name, name) {
			return nil, store.ErrDuplicate
		}
	}
	c := &models.Community{
		ID: f.nextID, Name: name, Description: description,
		OwnerID: ownerID, MemberCount: 1, CreatedAt: time.Now(),
	}
	f.communities[c.ID] = c
	f.members[c.ID] = map[int64]bool{ownerID: true}
	f.nextID++
	return c, nil
}

func (f *fakeCommunityStore) withCount(c *models.Community) *models.Community {
	out := *c
	out.MemberCount = len(f.members[c.ID])
	return &out
}

func (f *fakeCommunityStore) GetCommunity(_ context.Context, id int64) (*models.Community, error) {
	c, ok := f.communities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return f.withCount(c), nil
}

func (f *fakeCommunityStore) ListCommunities(_ context.Context) ([]models.Community, error) {
	out := []models.Community{}
	for _, c := range f.communities {
		out = append(out, *f.withCount(c))
	}
	return out, nil
}

func (f *fakeCommunityStore) SearchCommunities(_ context.Context, q string) ([]models.Community, error) {
	out := []models.Community{}
	for _, c := range f.communities {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			out = append(out, *f.withCount(c))
		}
	}
	return out, nil
}

func (f *fakeCommunityStore) ListMyCommunities(_ context.Context, userID int64) ([]models.Community, error) {
	out := []models.Community{}
	for id, c := range f.communities {
		if f.members[id][userID] {
			out = append(out, *f.withCount(c))
		}
	}
	return out, nil
}

func (f *fakeCommunityStore) UpdateCommunity(_ context.Context, id int64, upd store.CommunityUpdate) (*models.Community, error) {
	c, ok := f.communities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Name != nil {
		for _, other := range f.communities {
			if other.ID != id && strings.EqualFold(other.Name, *upd.Name) {
				return nil, store.ErrDuplicate
			}
		}
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	return f.withCount(c), nil
}

func (f *fakeCommunityStore) DeleteCommunity(_ context.Context, id int64) error {
	if _, ok := f.communities[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.communities, id)
	delete(f.members, id)
	return nil
}

func (f *fakeCommunityStore) JoinCommunity(_ context.Context, communityID, userID int64) error {
	if _, ok := f.communities[communityID]; !ok {
		return store.ErrNotFound
	}
	f.members[communityID][userID] = true
	return nil
}

func (f *fakeCommunityStore) LeaveCommunity(_ context.Context, communityID, userID int64) error {
	if !f.members[communityID][userID] {
		return store.ErrNotFound
	}
	delete(f.members[communityID], userID)
	return nil
}

func (f *fakeCommunityStore) ListCommunityMembers(_ context.Context, communityID int64) ([]models.User, error) {
	out := []models.User{}
	for id := range f.members[communityID] {
		out = append(out, models.User{ID: id})
	}
	return out, nil
}

func authedReq(method, path string, asUser int64, payload any, id int64) *http.Request {
	var body *bytes.Reader
	if payload != nil {
		buf, _ := json.Marshal(payload)
		body = bytes.NewReader(buf)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	rctx := chi.NewRouteContext()
	if id != 0 {
		rctx.URLParams.Add("id", strconv.FormatInt(id, 10))
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithUser(ctx, asUser, nil))
}

func TestCreateCommunity(t *testing.T) {
	h := NewHandler(newFakeCommunityStore())

	rec := httptest.NewRecorder()
	h.Create(rec, authedReq(http.MethodPost, "/api/communities", 1,
		map[string]any{"name": "Fantasy Readers", "description": "dragons welcome"}, 0))
	require.Equal(t, http.StatusCreated, rec.Code)

	var c models.Community
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	require.Equal(t, "Fantasy Readers", c.Name)
	require.Equal(t, int64(1), c.OwnerID)
	require.Equal(t, 1, c.MemberCount)
}

func TestCreateCommunityDuplicateName(t *testing.T) {
	communities := newFakeCommunityStore()
	_, err := communities.CreateCommunity(context.Background(), 1, "Fantasy Readers", "")
	require.NoError(t, err)
	h := NewHandler(communities)

	rec := httptest.NewRecorder()
	h.Create(rec, authedReq(http.MethodPost, "/api/communities", 2,
		map[string]any{"name": "Fantasy Readers"}, 0))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already exists")
}

func TestSearchCommunities(t *testing.T) {
	communities := newFakeCommunityStore()
	_, err := communities.CreateCommunity(context.Background(), 1, "Fantasy Readers", "")
	require.NoError(t, err)
	_, err = communities.CreateCommunity(context.Background(), 1, "History Buffs", "")
	require.NoError(t, err)
	h := NewHandler(communities)

	rec := httptest.NewRecorder()
	h.Search(rec, authedReq(http.MethodGet, "/api/communities/search?q=fantasy", 1, nil, 0))
	require.Equal(t, http.StatusOK, rec.Code)
	var found []models.Community
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)
	require.Equal(t, "Fantasy Readers", found[0].Name)

	// Empty query falls back to the full list.
	rec = httptest.NewRecorder()
	h.Search(rec, authedReq(http.MethodGet, "/api/communities/search", 1, nil, 0))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 2)
}

func TestUpdateCommunityOwnerOnly(t *testing.T) {
	communities := newFakeCommunityStore()
	c, err := communities.CreateCommunity(context.Background(), 1, "Fantasy Readers", "")
	require.NoError(t, err)
	h := NewHandler(communities)

	rec := httptest.NewRecorder()
	h.Update(rec, authedReq(http.MethodPut, "/api/communities/1", 2,
		map[string]any{"name": "Taken Over"}, c.ID))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Only the community owner can update it")

	rec = httptest.NewRecorder()
	h.Update(rec, authedReq(http.MethodPut, "/api/communities/1", 1,
		map[string]any{"description": "new description"}, c.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "new description", communities.communities[c.ID].Description)
}

func TestDeleteCommunityOwnerOnly(t *testing.T) {
	communities := newFakeCommunityStore()
	c, err := communities.CreateCommunity(context.Background(), 1, "Fantasy Readers", "")
	require.NoError(t, err)
	h := NewHandler(communities)

	rec := httptest.NewRecorder()
	h.Delete(rec, authedReq(http.MethodDelete, "/api/communities/1", 2, nil, c.ID))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.Delete(rec, authedReq(http.MethodDelete, "/api/communities/1", 1, nil, c.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, communities.communities)
}

func TestJoinIsIdempotent(t *testing.T) {
	communities := newFakeCommunityStore()
	c, err := communities.CreateCommunity(context.Background(), 1, "Fantasy Readers", "")
	require.NoError(t, err)
	h := NewHandler(communities)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Join(rec, authedReq(http.MethodPost, "/api/communities/1/join", 2, nil, c.ID))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Len(t, communities.members[c.ID], 2)
}

func TestJoinMissingCommunity(t *testing.T) {
	h := NewHandler(newFakeCommunityStore())
	rec := httptest.NewRecorder()
	h.Join(rec, authedReq(http.MethodPost, "/api/communities/99/join", 2, nil, 99))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Community not found")
}

func TestLeaveCommunity(t *testing.T) {
	communities := newFakeCommunityStore()
	c, err := communities.CreateCommunity(context.Background(), 1, "Fantasy Readers", "")
	require.NoError(t, err)
	require.NoError(t, communities.JoinCommunity(context.Background(), c.ID, 2))
	h := NewHandler(communities)

	rec := httptest.NewRecorder()
	h.Leave(rec, authedReq(http.MethodDelete, "/api/communities/1/leave", 2, nil, c.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, communities.members[c.ID][2])

	// Leaving again reports non-membership.
	rec = httptest.NewRecorder()
	h.Leave(rec, authedReq(http.MethodDelete, "/api/communities/1/leave", 2, nil, c.ID))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "You are not a member of this community")
}

func TestMembers(t *testing.T) {
	communities := newFakeCommunityStore()
	c, err := communities.CreateCommunity(context.Background(), 1, "Fantasy Readers", "")
	require.NoError(t, err)
	require.NoError(t, communities.JoinCommunity(context.Background(), c.ID, 2))
	h := NewHandler(communities)

	rec := httptest.NewRecorder()
	h.Members(rec, authedReq(http.MethodGet, "/api/communities/1/members", 1, nil, c.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var members []models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Len(t, members, 2)
}
