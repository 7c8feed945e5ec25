package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"thoughtnet/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the error envelope returned for every failed request
type ErrorResponse struct {
	Kind    models.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends the error envelope with the status that matches its kind
func respondError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	statusCode := statusFor(kind)
	if statusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Str("kind", string(kind)).Msg("Request failed")
	}
	respondJSON(w, statusCode, ErrorResponse{Kind: kind, Message: models.MessageOf(err)})
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindValidation, models.KindInvalidID, models.KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return models.NewBadRequestError("Invalid request body", err)
	}
	return nil
}
