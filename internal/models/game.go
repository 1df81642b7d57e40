package models

import "time"

// DefaultTargetScore is applied when a game is created without a target.
const DefaultTargetScore = 500

// Round is one scoring event. Scores maps Player.ID to the points gained in
// this round; a player missing from the map scored zero.
type Round struct {
	ID     string         `json:"id"`
	Scores map[string]int `json:"scores"`
}

// Game is a score-tracking session owned by one user inside one tenant.
// Rounds are kept in play order and are never resorted.
type Game struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Players     []Player  `json:"players"`
	Rounds      []Round   `json:"rounds"`
	TargetScore int       `json:"targetScore"`
	IsComplete  bool      `json:"isComplete"`
	UserID      string    `json:"userId"`
	TenantID    string    `json:"tenantId"`
}

// Clone returns a deep copy so callers can hand out games without sharing maps.
func (g Game) Clone() Game {
	out := g
	out.Players = append([]Player(nil), g.Players...)
	if g.Rounds != nil {
		out.Rounds = make([]Round, len(g.Rounds))
		for i, r := range g.Rounds {
			out.Rounds[i] = r.Clone()
		}
	}
	return out
}

// Clone returns a copy of the round with its own scores map.
func (r Round) Clone() Round {
	out := Round{ID: r.ID}
	if r.Scores != nil {
		out.Scores = make(map[string]int, len(r.Scores))
		for k, v := range r.Scores {
			out.Scores[k] = v
		}
	}
	return out
}

// Player looks up a player by id.
func (g Game) Player(id string) (Player, bool) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// RoundIndex returns the position of the round with the given id, or -1.
func (g Game) RoundIndex(id string) int {
	for i, r := range g.Rounds {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// CreateGameRequest is the body of POST /games.
type CreateGameRequest struct {
	Name        string   `json:"name"`
	Players     []string `json:"players"`
	TargetScore int      `json:"targetScore"`
}

// RoundRequest is the body of the add-round and edit-round calls.
type RoundRequest struct {
	Scores map[string]int `json:"scores"`
}

// GamesResponse is the body returned by GET /games.
type GamesResponse struct {
	Games []Game `json:"games"`
}

// ListGamesOptions scopes a game listing. With TenantWide unset the server
// returns the caller's own games; otherwise every game in the caller's
// tenant, optionally narrowed to UserID.
type ListGamesOptions struct {
	TenantWide bool
	UserID     string
}
