package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"ludo_arena/internal/domain"

	"github.com/google/uuid"
)

var ErrIdentityNotFound = errors.New("identity not found")

var avatars = []string{"🐶", "🐱", "🐼", "🦊", "🐯", "🦁"}

// IdentityRegistry issues anonymous identities and keeps them for the
// process lifetime. It is the only process-wide user state there is.
type IdentityRegistry struct {
	mu         sync.RWMutex
	identities map[string]*domain.Identity
}

func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{identities: make(map[string]*domain.Identity)}
}

// Issue mints a fresh anonymous identity. It always succeeds.
func (r *IdentityRegistry) Issue() *domain.Identity {
	id := &domain.Identity{
		ID:          "anon_" + uuid.NewString(),
		DisplayName: fmt.Sprintf("Player_%04d", randN(10000)),
		Avatar:      avatars[randN(len(avatars))],
		Online:      true,
		CreatedAt:   time.Now(),
	}

	r.mu.Lock()
	r.identities[id.ID] = id
	r.mu.Unlock()
	return id
}

// Get returns a copy of the identity record.
func (r *IdentityRegistry) Get(id string) (domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ident, ok := r.identities[id]
	if !ok {
		return domain.Identity{}, ErrIdentityNotFound
	}
	return *ident, nil
}

// SetOnline flips the liveness flag; unknown ids are ignored.
func (r *IdentityRegistry) SetOnline(id string, online bool) {
	r.mu.Lock()
	if ident, ok := r.identities[id]; ok {
		ident.Online = online
	}
	r.mu.Unlock()
}

// RecordGame bumps the per-identity counters at room completion.
func (r *IdentityRegistry) RecordGame(id string, won bool) {
	r.mu.Lock()
	if ident, ok := r.identities[id]; ok {
		ident.GamesPlayed++
		if won {
			ident.GamesWon++
		}
	}
	r.mu.Unlock()
}

func randN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
