package models

// Event types recorded for every game mutation.
const (
	EventGameCreated   = "game_created"
	EventRoundAdded    = "round_added"
	EventRoundEdited   = "round_edited"
	EventGameCompleted = "game_completed"
	EventGameDeleted   = "game_deleted"
)

// GameEvent captures one mutation of a game. It is pushed to the historian
// queue and fanned out to websocket subscribers of the game.
type GameEvent struct {
	Type        string `json:"type"`
	GameID      string `json:"game_id"`
	TenantID    string `json:"tenant_id"`
	ActorUserID string `json:"actor_user_id"`
	Game        *Game  `json:"game,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}
