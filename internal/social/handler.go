// Package social implements the friend-request state machine over a
// single undirected edge per user pair.
package social

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shelfscape/backend/internal/api"
	"github.com/shelfscape/backend/internal/middleware"
	"github.com/shelfscape/backend/internal/models"
	"github.com/shelfscape/backend/internal/store"
)

// FriendStore defines the interface for friend edge persistence.
type FriendStore interface {
	Edge(ctx context.Context, userA, userB int64) (*models.FriendRequest, error)
	CreateRequest(ctx context.Context, requesterID, addresseeID int64) (*models.FriendRequest, error)
	SetEdgeStatus(ctx context.Context, edgeID int64, status models.FriendStatus) error
	ResetEdge(ctx context.Context, edgeID, requesterID, addresseeID int64) error
	DeleteEdge(ctx context.Context, edgeID int64) error
	ListFriends(ctx context.Context, userID int64) ([]models.User, error)
	ListIncoming(ctx context.Context, userID int64) ([]models.PendingRequest, error)
	ListOutgoing(ctx context.Context, userID int64) ([]models.PendingRequest, error)
}

// UserGetter looks up users for target validation.
type UserGetter interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Handler holds the friend HTTP handlers.
type Handler struct {
	friends FriendStore
	users   UserGetter
}

func NewHandler(friends FriendStore, users UserGetter) *Handler {
	return &Handler{friends: friends, users: users}
}

// Request handles POST /api/friends/{id}. One endpoint drives the
// whole forward side of the state machine: no edge sends a request,
// a pending edge addressed to the caller accepts it, and a declined
// edge starts the pair over.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if targetID == userID {
		api.Error(w, http.StatusBadRequest, "You cannot send a friend request to yourself")
		return
	}
	if _, err := h.users.GetUserByID(r.Context(), targetID); err != nil {
		api.StoreError(w, err, "User not found", "")
		return
	}

	edge, err := h.friends.Edge(r.Context(), userID, targetID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			api.StoreError(w, err, "User not found", "")
			return
		}
		fr, err := h.friends.CreateRequest(r.Context(), userID, targetID)
		if err != nil {
			api.StoreError(w, err, "User not found",
				"A friend request already exists between you and this user")
			return
		}
		api.WriteJSON(w, http.StatusCreated, map[string]any{
			"message": "Friend request sent",
			"request": fr,
		})
		return
	}

	switch edge.Status {
	case models.FriendStatusPending:
		if edge.AddresseeID == userID {
			if err := h.friends.SetEdgeStatus(r.Context(), edge.ID, models.FriendStatusAccepted); err != nil {
				api.StoreError(w, err, "Friend request not found", "")
				return
			}
			api.Message(w, http.StatusOK, "Friend request accepted")
			return
		}
		api.Error(w, http.StatusConflict, "Friend request already sent")
	case models.FriendStatusAccepted:
		api.Message(w, http.StatusOK, "You are already friends")
	case models.FriendStatusDeclined:
		if err := h.friends.ResetEdge(r.Context(), edge.ID, userID, targetID); err != nil {
			api.StoreError(w, err, "Friend request not found", "")
			return
		}
		api.WriteJSON(w, http.StatusCreated, map[string]any{
			"message": "Friend request sent",
		})
	default:
		api.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Remove handles DELETE /api/friends/{id}, the reverse side of the
// state machine: cancel an outgoing request, decline an incoming one,
// or unfriend.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	edge, err := h.friends.Edge(r.Context(), userID, targetID)
	if err != nil {
		api.StoreError(w, err, "No friendship or request found with this user", "")
		return
	}

	switch edge.Status {
	case models.FriendStatusPending:
		if edge.AddresseeID == userID {
			// Incoming request: decline, keeping the edge so the
			// requester cannot immediately re-send.
			if err := h.friends.SetEdgeStatus(r.Context(), edge.ID, models.FriendStatusDeclined); err != nil {
				api.StoreError(w, err, "Friend request not found", "")
				return
			}
			api.Message(w, http.StatusOK, "Friend request declined")
			return
		}
		if err := h.friends.DeleteEdge(r.Context(), edge.ID); err != nil {
			api.StoreError(w, err, "Friend request not found", "")
			return
		}
		api.Message(w, http.StatusOK, "Friend request cancelled")
	case models.FriendStatusAccepted:
		if err := h.friends.DeleteEdge(r.Context(), edge.ID); err != nil {
			api.StoreError(w, err, "Friend request not found", "")
			return
		}
		api.Message(w, http.StatusOK, "Friend removed")
	case models.FriendStatusDeclined:
		if err := h.friends.DeleteEdge(r.Context(), edge.ID); err != nil {
			api.StoreError(w, err, "Friend request not found", "")
			return
		}
		api.Message(w, http.StatusOK, "Friend request removed")
	default:
		api.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// List returns the authenticated user's accepted friends.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	friends, err := h.friends.ListFriends(r.Context(), userID)
	if err != nil {
		api.StoreError(w, err, "User not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, friends)
}

// Incoming returns pending requests addressed to the user.
func (h *Handler) Incoming(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	reqs, err := h.friends.ListIncoming(r.Context(), userID)
	if err != nil {
		api.StoreError(w, err, "User not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, reqs)
}

// Outgoing returns pending requests sent by the user.
func (h *Handler) Outgoing(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	reqs, err := h.friends.ListOutgoing(r.Context(), userID)
	if err != nil {
		api.StoreError(w, err, "User not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, reqs)
}
