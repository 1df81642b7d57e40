package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jason-s-yu/scorekeeper/internal/auth"
	"github.com/jason-s-yu/scorekeeper/internal/game"
	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into v. An empty body is an error.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// requestUser returns the caller set by middleware.RequireSession.
func requestUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return u, ok
}

// writeError maps service errors onto status codes.
func (s *GameServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		http.Error(w, "game not found", http.StatusNotFound)
	case errors.Is(err, game.ErrRoundNotFound):
		http.Error(w, "round not found", http.StatusNotFound)
	case errors.Is(err, game.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, game.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.Logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("games api failure")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
