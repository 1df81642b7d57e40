package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/scorekeeper/internal/middleware"
)

// NewRouter builds the games API. allowedOrigins feeds CORS; an empty list
// allows any http(s) origin, which is what development uses.
func NewRouter(s *GameServer, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(middleware.LogMiddleware(s.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CSRFHeaderName},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.IssueCSRF(s.Logger))
	r.Use(chimw.Heartbeat("/ping"))

	r.Route("/games", func(r chi.Router) {
		r.Use(middleware.RequireSession(s.Logger))
		r.Use(middleware.RequireCSRF)

		r.Get("/", s.listGames)
		r.Post("/", s.createGame)
		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", s.getGame)
			r.Delete("/", s.deleteGame)
			r.Post("/rounds", s.addRound)
			r.Put("/rounds/{roundID}", s.editRound)
			r.Put("/complete", s.completeGame)
			r.Get("/ws", s.gameFeed)
		})
	})
	return r
}
