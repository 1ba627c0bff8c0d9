package repository

import (
	"context"

	"ludo_arena/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create сохраняет одну строку истории для игрока
func (r *MatchRepository) Create(ctx context.Context, m *domain.MatchRecord) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO match_history
			(identity_id, display_name, room_id, player_count, finish_rank, result)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		m.IdentityID,
		m.DisplayName,
		m.RoomID,
		m.PlayerCount,
		m.FinishRank,
		m.Result,
	).Scan(&m.ID, &m.CreatedAt)
}

// GetByIdentity возвращает историю партий игрока
func (r *MatchRepository) GetByIdentity(ctx context.Context, identityID string, limit int) ([]*domain.MatchRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, identity_id, display_name, room_id, player_count, finish_rank, result, created_at
		 FROM match_history
		 WHERE identity_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		identityID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.MatchRecord
	for rows.Next() {
		m := &domain.MatchRecord{}
		if err := rows.Scan(&m.ID, &m.IdentityID, &m.DisplayName, &m.RoomID,
			&m.PlayerCount, &m.FinishRank, &m.Result, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LeaderboardEntry - строка таблицы лидеров
type LeaderboardEntry struct {
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	Games       int    `json:"games"`
	Wins        int    `json:"wins"`
}

// Leaderboard возвращает игроков по числу побед
func (r *MatchRepository) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT identity_id,
				MAX(display_name) as display_name,
				COUNT(*) as games,
				COUNT(*) FILTER (WHERE result = 'win') as wins
		 FROM match_history
		 GROUP BY identity_id
		 ORDER BY wins DESC, games ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LeaderboardEntry
	for rows.Next() {
		e := &LeaderboardEntry{}
		if err := rows.Scan(&e.IdentityID, &e.DisplayName, &e.Games, &e.Wins); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
