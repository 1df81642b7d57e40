package models

// Player is a seat in a Game. UserID links the seat to an account managed
// outside this service; an empty UserID marks a guest whose Name is stored as-is.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"userId,omitempty"`
}

// IsGuest reports whether the player has no linked user account.
func (p Player) IsGuest() bool {
	return p.UserID == ""
}
