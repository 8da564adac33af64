package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// clientError is implemented by catalog errors that map onto a 4xx response.
type clientError interface {
	error
	HTTPStatus() int
	ClientMessage() string
}

func writeJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	writeJSON(w, status, ErrorResponse{Error: message}, logger)
}

// handleError maps catalog errors to their status; anything else becomes a 500.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	var ce clientError
	if errors.As(err, &ce) {
		writeError(w, ce.HTTPStatus(), ce.ClientMessage(), s.logger)
		return
	}

	s.logger.Error("unhandled error", slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, "internal server error", s.logger)
}
