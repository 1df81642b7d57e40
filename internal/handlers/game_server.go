// internal/handlers/game_server.go
package handlers

import (
	"github.com/jason-s-yu/scorekeeper/internal/game"
	"github.com/sirupsen/logrus"
)

// GameServer holds what the games API handlers need: the rules service, the
// live feed hub and a logger.
type GameServer struct {
	Service *game.Service
	Hub     *GameHub
	Logger  *logrus.Logger

	// OriginPatterns are passed to websocket.Accept for the live feed.
	OriginPatterns []string
}

func NewGameServer(svc *game.Service, hub *GameHub, logger *logrus.Logger) *GameServer {
	return &GameServer{
		Service: svc,
		Hub:     hub,
		Logger:  logger,
	}
}
