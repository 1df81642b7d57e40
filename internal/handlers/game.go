// internal/handlers/game.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/scorekeeper/internal/models"
)

// listGames handles GET /games?tenant_wide=&user_id=.
func (s *GameServer) listGames(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}
	var opts models.ListGamesOptions
	if tw := r.URL.Query().Get("tenant_wide"); tw != "" {
		v, err := strconv.ParseBool(tw)
		if err != nil {
			http.Error(w, "tenant_wide must be a boolean", http.StatusBadRequest)
			return
		}
		opts.TenantWide = v
	}
	opts.UserID = r.URL.Query().Get("user_id")

	games, err := s.Service.List(r.Context(), u, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if games == nil {
		games = []models.Game{}
	}
	writeJSON(w, http.StatusOK, models.GamesResponse{Games: games})
}

// createGame handles POST /games.
func (s *GameServer) createGame(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req models.CreateGameRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	g, err := s.Service.Create(r.Context(), u, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// getGame handles GET /games/{gameID}.
func (s *GameServer) getGame(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}
	g, err := s.Service.Get(r.Context(), u, chi.URLParam(r, "gameID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// addRound handles POST /games/{gameID}/rounds.
func (s *GameServer) addRound(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req models.RoundRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	g, err := s.Service.AddRound(r.Context(), u, chi.URLParam(r, "gameID"), req.Scores)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// editRound handles PUT /games/{gameID}/rounds/{roundID}.
func (s *GameServer) editRound(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req models.RoundRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	g, err := s.Service.EditRound(r.Context(), u, chi.URLParam(r, "gameID"), chi.URLParam(r, "roundID"), req.Scores)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// completeGame handles PUT /games/{gameID}/complete.
func (s *GameServer) completeGame(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}
	g, err := s.Service.Complete(r.Context(), u, chi.URLParam(r, "gameID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// deleteGame handles DELETE /games/{gameID}.
func (s *GameServer) deleteGame(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}
	if err := s.Service.Delete(r.Context(), u, chi.URLParam(r, "gameID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Game deleted successfully"})
}
