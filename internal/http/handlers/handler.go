package handlers

import (
	"ludo_arena/internal/repository"
	"ludo_arena/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB         *pgxpool.Pool
	Identities *service.IdentityRegistry
	Matches    *repository.MatchRepository
}

func NewHandler(db *pgxpool.Pool, identities *service.IdentityRegistry) *Handler {
	return &Handler{
		DB:         db,
		Identities: identities,
		Matches:    repository.NewMatchRepository(db),
	}
}
