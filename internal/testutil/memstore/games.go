package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cartai/ledger/internal/game"
	"github.com/google/uuid"
)

// GameSessions is an in-memory game.SessionStore. Games are stored as JSON so callers
// never share slices with the stored copy, matching the Redis store.
type GameSessions struct {
	mu    sync.Mutex
	games map[uuid.UUID][]byte
}

func NewGameSessions() *GameSessions {
	return &GameSessions{games: map[uuid.UUID][]byte{}}
}

func (s *GameSessions) Save(_ context.Context, g *game.Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = raw
	return nil
}

func (s *GameSessions) Load(_ context.Context, id uuid.UUID) (*game.Game, error) {
	s.mu.Lock()
	raw, ok := s.games[id]
	s.mu.Unlock()
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	var g game.Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

var _ game.SessionStore = (*GameSessions)(nil)
