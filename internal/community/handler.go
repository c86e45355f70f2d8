// Package community holds the community HTTP handlers.
package community

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

// CommunityStore defines the interface for community persistence.
type CommunityStore interface {
	CreateCommunity(ctx context.Context, ownerID int64, name, description string) (*models.Community, error)
	GetCommunity(ctx context.Context, id int64) (*models.Community, error)
	ListCommunities(ctx context.Context) ([]models.Community, error)
	SearchCommunities(ctx context.Context, q string) ([]models.Community, error)
	ListMyCommunities(ctx context.Context, userID int64) ([]models.Community, error)
	UpdateCommunity(ctx context.Context, id int64, upd store.CommunityUpdate) (*models.Community, error)
	DeleteCommunity(ctx context.Context, id int64) error
	JoinCommunity(ctx context.Context, communityID, userID int64) error
	LeaveCommunity(ctx context.Context, communityID, userID int64) error
	ListCommunityMembers(ctx context.Context, communityID int64) ([]models.User, error)
}

// Handler holds the community HTTP handlers.
type Handler struct {
	communities CommunityStore
}

func NewHandler(communities CommunityStore) *Handler {
	return &Handler{communities: communities}
}

// Create makes a community owned by the caller, who joins it
// automatically.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		api.Error(w, http.StatusBadRequest, "Community name is required")
		return
	}

	community, err := h.communities.CreateCommunity(r.Context(), userID, name,
		strings.TrimSpace(req.Description))
	if err != nil {
		api.StoreError(w, err, "Community not found",
			fmt.Sprintf("Community with name %q already exists", name))
		return
	}
	api.WriteJSON(w, http.StatusCreated, community)
}

// List returns every community.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	communities, err := h.communities.ListCommunities(r.Context())
	if err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, communities)
}

// Search filters communities by name substring, case-insensitively.
// An empty query returns everything.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		communities []models.Community
		err         error
	)
	if q == "" {
		communities, err = h.communities.ListCommunities(r.Context())
	} else {
		communities, err = h.communities.SearchCommunities(r.Context(), q)
	}
	if err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, communities)
}

// Mine returns the communities the caller belongs to.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	communities, err := h.communities.ListMyCommunities(r.Context(), userID)
	if err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, communities)
}

// Get returns a single community.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	community, err := h.communities.GetCommunity(r.Context(), id)
	if err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, community)
}

// Update applies a partial update. Only the owner may update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	community, err := h.communities.GetCommunity(r.Context(), id)
	if err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	if community.OwnerID != userID {
		api.Error(w, http.StatusForbidden, "Only the community owner can update it")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Request body is required for update")
		return
	}

	upd := store.CommunityUpdate{Description: req.Description}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			api.Error(w, http.StatusBadRequest, "Community name cannot be empty")
			return
		}
		upd.Name = &name
	}
	if upd.Name == nil && upd.Description == nil {
		api.Message(w, http.StatusOK, "No changes provided to update.")
		return
	}

	updated, err := h.communities.UpdateCommunity(r.Context(), id, upd)
	if err != nil {
		conflict := "Another community with that name already exists"
		if upd.Name != nil {
			conflict = fmt.Sprintf("Community with name %q already exists", *upd.Name)
		}
		api.StoreError(w, err, "Community not found", conflict)
		return
	}
	api.WriteJSON(w, http.StatusOK, updated)
}

// Delete removes a community. Only the owner may delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	community, err := h.communities.GetCommunity(r.Context(), id)
	if err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	if community.OwnerID != userID {
		api.Error(w, http.StatusForbidden, "Only the community owner can delete it")
		return
	}

	if err := h.communities.DeleteCommunity(r.Context(), id); err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	api.Message(w, http.StatusOK, "Community deleted successfully")
}

// Join enrolls the caller; joining twice is a no-op.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	if err := h.communities.JoinCommunity(r.Context(), id, userID); err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	api.Message(w, http.StatusOK, "Joined community")
}

// Leave removes the caller's membership.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	if err := h.communities.LeaveCommunity(r.Context(), id, userID); err != nil {
		api.StoreError(w, err, "You are not a member of this community", "")
		return
	}
	api.Message(w, http.StatusOK, "Left community")
}

// Members lists a community's members.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid community id")
		return
	}

	if _, err := h.communities.GetCommunity(r.Context(), id); err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	members, err := h.communities.ListCommunityMembers(r.Context(), id)
	if err != nil {
		api.StoreError(w, err, "Community not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, members)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
