package domain

import "time"

// Identity is an anonymous player minted at login. It lives for the process
// lifetime; only the liveness flag and the counters ever change.
type Identity struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Avatar      string    `json:"avatar"`
	Online      bool      `json:"online"`
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
	CreatedAt   time.Time `json:"created_at"`
}
