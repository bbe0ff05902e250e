package entity

// Player is the browser session that owns a game.
type Player struct {
	ID     string `json:"id"`
	GameID string `json:"game_id,omitempty"`
}
