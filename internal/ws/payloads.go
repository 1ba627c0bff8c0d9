package ws

import (
	"encoding/json"
	"time"

	"ludo_arena/internal/ludo"
)

// client → server

type FindGamePayload struct {
	PlayerCount int `json:"player_count"`
}

type RoomActionPayload struct {
	RoomID     string `json:"room_id"`
	PieceIndex int    `json:"piece_index"`
	Text       string `json:"text"`
}

// SignalPayload addresses one recipient connection. Data is never parsed,
// only forwarded.
type SignalPayload struct {
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

// server → client

type ReadyPayload struct {
	ConnID string `json:"conn_id"`
}

type GameFoundPayload struct {
	RoomID string     `json:"room_id"`
	Game   *ludo.Game `json:"game"`
}

type DiceRolledPayload struct {
	PlayerID   string `json:"player_id"`
	Value      int    `json:"value"`
	ThreeSixes bool   `json:"three_sixes,omitempty"`
}

type PieceMovedPayload struct {
	PlayerID   string             `json:"player_id"`
	PieceIndex int                `json:"piece_index"`
	From       ludo.TrackPosition `json:"from"`
	To         ludo.TrackPosition `json:"to"`
}

type PieceCapturedPayload struct {
	CapturingPlayer string `json:"capturing_player"`
	CapturedPlayer  string `json:"captured_player"`
	PieceIndex      int    `json:"piece_index"`
}

type TurnChangedPayload struct {
	PlayerID    string `json:"player_id"`
	AutoSkipped bool   `json:"auto_skipped,omitempty"`
}

type ExtraTurnPayload struct {
	PlayerID string `json:"player_id"`
}

type PlayerWonPayload struct {
	PlayerID string `json:"player_id"`
	Rank     int    `json:"rank"`
}

type GameEndedPayload struct {
	Standings []ludo.Standing `json:"standings"`
}

type ChatMessagePayload struct {
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

type VideoPeerPayload struct {
	ConnID     string `json:"conn_id"`
	IdentityID string `json:"identity_id"`
}

type SignalForwardPayload struct {
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
