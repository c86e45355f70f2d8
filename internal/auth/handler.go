package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/shelfscape/backend/internal/api"
	"github.com/shelfscape/backend/internal/middleware"
	"github.com/shelfscape/backend/internal/models"
	"github.com/shelfscape/backend/internal/store"
	"github.com/shelfscape/backend/internal/token"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error)
	IdentityTaken(ctx context.Context, username, email string) (bool, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users  UserStore
	tokens *token.Service
}

func NewHandler(users UserStore, tokens *token.Service) *Handler {
	return &Handler{users: users, tokens: tokens}
}

// Register creates a new user and their default bookshelf.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		api.Error(w, http.StatusBadRequest, "Missing username, email, or password")
		return
	}
	if len(username) < 3 {
		api.Error(w, http.StatusBadRequest, "Username must be at least 3 characters long")
		return
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		api.Error(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if len(req.Password) < 6 {
		api.Error(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	taken, err := h.users.IdentityTaken(r.Context(), username, email)
	if err != nil {
		log.Printf("register: identity check: %v", err)
		api.Error(w, http.StatusInternalServerError, "Registration failed due to a server error")
		return
	}
	if taken {
		api.Error(w, http.StatusConflict, "Username or email already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "Registration failed due to a server error")
		return
	}

	user, err := h.users.CreateUser(r.Context(), username, email, string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			api.Error(w, http.StatusConflict, "Username or email already exists")
			return
		}
		log.Printf("register: create user: %v", err)
		api.Error(w, http.StatusInternalServerError, "Registration failed due to a server error")
		return
	}

	log.Printf("registered new user %s (id=%d)", user.Username, user.ID)
	api.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("User %s registered successfully!", user.Username),
		"user":    user,
	})
}

// Login verifies credentials and issues a session token. The error
// never reveals whether the identifier exists.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		api.Error(w, http.StatusBadRequest, "Missing identifier or password")
		return
	}

	user, err := h.users.GetUserByIdentifier(r.Context(), identifier)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("login: lookup: %v", err)
		}
		api.Error(w, http.StatusUnauthorized, "Invalid username/email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		api.Error(w, http.StatusUnauthorized, "Invalid username/email or password")
		return
	}

	signed, err := h.tokens.Issue(user)
	if err != nil {
		log.Printf("login: issue token: %v", err)
		api.Error(w, http.StatusInternalServerError, "Login succeeded but failed to generate session token")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("User %s logged in successfully!", user.Username),
		"user":    user,
		"token":   signed,
	})
}

// Logout revokes the presented token for the rest of its lifetime.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.TokenClaims(r.Context())
	if claims == nil {
		api.Error(w, http.StatusUnauthorized, "Token is missing")
		return
	}
	if err := h.tokens.Revoke(r.Context(), claims); err != nil {
		log.Printf("logout: revoke: %v", err)
		api.Error(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	api.Message(w, http.StatusOK, "Logged out successfully")
}

// Refresh issues a fresh token for the authenticated user.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		api.StoreError(w, err, "User not found", "")
		return
	}

	signed, err := h.tokens.Issue(user)
	if err != nil {
		log.Printf("refresh: issue token: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to generate session token")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"token": signed})
}

// Verify returns the user record behind a valid token.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		api.StoreError(w, err, "User associated with token not found", "")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Token is valid",
		"user":    user,
	})
}
