package ws

import "encoding/json"

const (
	// client -> server
	MsgFindGame   = "find_game"
	MsgCancelFind = "cancel_find"
	MsgRollDice   = "roll_dice"
	MsgMovePiece  = "move_piece"
	MsgChat       = "chat"
	MsgVideoJoin  = "video_join"
	MsgVideoLeave = "video_leave"

	// signaling, relayed both ways
	MsgOffer        = "offer"
	MsgAnswer       = "answer"
	MsgIceCandidate = "ice_candidate"

	// server -> client
	MsgReady          = "ready"
	MsgGameFound      = "game_found"
	MsgGameStarted    = "game_started"
	MsgDiceRolled     = "dice_rolled"
	MsgPieceMoved     = "piece_moved"
	MsgPieceCaptured  = "piece_captured"
	MsgTurnChanged    = "turn_changed"
	MsgExtraTurn      = "extra_turn"
	MsgPlayerWon      = "player_won"
	MsgGameEnded      = "game_ended"
	MsgChatMessage    = "chat_message"
	MsgVideoPeerJoin  = "video_peer_joined"
	MsgVideoPeerLeave = "video_peer_left"
	MsgError          = "error"
)

// Message is the inbound envelope. Payload stays raw until the handler for
// the type decodes it.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is the outbound envelope.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}
