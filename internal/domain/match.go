package domain

import "time"

// MatchResult - итог партии для одного игрока
type MatchResult string

const (
	MatchResultWin  MatchResult = "win"
	MatchResultLose MatchResult = "lose"
)

// MatchRecord - одна строка истории: игрок в завершённой комнате
type MatchRecord struct {
	ID          int64       `db:"id" json:"id"`
	IdentityID  string      `db:"identity_id" json:"identity_id"`
	DisplayName string      `db:"display_name" json:"display_name"`
	RoomID      string      `db:"room_id" json:"room_id"`
	PlayerCount int         `db:"player_count" json:"player_count"`
	FinishRank  int         `db:"finish_rank" json:"finish_rank"` // 0 = never finished
	Result      MatchResult `db:"result" json:"result"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}
