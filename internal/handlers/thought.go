package handlers

import (
	"net/http"

	"thoughtnet/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ThoughtHandler handles thought and reaction HTTP requests
type ThoughtHandler struct {
	thoughtService *services.ThoughtService
}

// NewThoughtHandler creates a new thought handler
func NewThoughtHandler(thoughtService *services.ThoughtService) *ThoughtHandler {
	return &ThoughtHandler{
		thoughtService: thoughtService,
	}
}

// Routes registers the thought routes on r
func (h *ThoughtHandler) Routes(r chi.Router) {
	r.Get("/", h.ListThoughts)
	r.Post("/", h.CreateThought)
	r.Get("/{id}", h.GetThought)
	r.Put("/{id}", h.UpdateThought)
	r.Delete("/{id}", h.DeleteThought)
	r.Post("/{id}/reactions", h.AddReaction)
	r.Delete("/{id}/reactions/{reactionId}", h.RemoveReaction)
}

// ListThoughts handles GET /thoughts
func (h *ThoughtHandler) ListThoughts(w http.ResponseWriter, r *http.Request) {
	thoughts, err := h.thoughtService.ListThoughts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, thoughts)
}

// GetThought handles GET /thoughts/{id}
func (h *ThoughtHandler) GetThought(w http.ResponseWriter, r *http.Request) {
	thought, err := h.thoughtService.GetThought(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, thought)
}

// CreateThought handles POST /thoughts
func (h *ThoughtHandler) CreateThought(w http.ResponseWriter, r *http.Request) {
	var req services.CreateThoughtRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	thought, err := h.thoughtService.CreateThought(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().
		Str("thought_id", thought.ID.Hex()).
		Str("username", thought.Username).
		Msg("Thought created")

	respondJSON(w, http.StatusOK, thought)
}

// UpdateThought handles PUT /thoughts/{id}
func (h *ThoughtHandler) UpdateThought(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateThoughtRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	thought, err := h.thoughtService.UpdateThought(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, thought)
}

// DeleteThought handles DELETE /thoughts/{id}
func (h *ThoughtHandler) DeleteThought(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := h.thoughtService.DeleteThought(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	log.Info().Str("thought_id", id).Msg("Thought deleted")
	respondJSON(w, http.StatusOK, resp)
}

// AddReaction handles POST /thoughts/{id}/reactions
func (h *ThoughtHandler) AddReaction(w http.ResponseWriter, r *http.Request) {
	var req services.AddReactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	thought, err := h.thoughtService.AddReaction(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, thought)
}

// RemoveReaction handles DELETE /thoughts/{id}/reactions/{reactionId}
func (h *ThoughtHandler) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	thought, err := h.thoughtService.RemoveReaction(r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "reactionId"),
	)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, thought)
}
