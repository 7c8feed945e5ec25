package handlers

import (
	"net/http"

	"thoughtnet/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Routes registers the user routes on r
func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/", h.ListUsers)
	r.Post("/", h.CreateUser)
	r.Get("/{id}", h.GetUser)
	r.Put("/{id}", h.UpdateUser)
	r.Delete("/{id}", h.DeleteUser)
	r.Post("/{id}/friends/{friendId}", h.AddFriend)
	r.Delete("/{id}/friends/{friendId}", h.RemoveFriend)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	resp, err := h.userService.DeleteUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// AddFriend handles POST /users/{id}/friends/{friendId}
func (h *UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	friendID := chi.URLParam(r, "friendId")

	user, err := h.userService.AddFriend(r.Context(), userID, friendID)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friend_id", friendID).
		Int("friend_count", user.FriendCount()).
		Msg("Friend added")

	respondJSON(w, http.StatusOK, user)
}

// RemoveFriend handles DELETE /users/{id}/friends/{friendId}
func (h *UserHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.RemoveFriend(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "friendId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
