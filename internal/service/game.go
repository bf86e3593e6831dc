package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cartai/ledger/internal/game"
	"github.com/cartai/ledger/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GameService runs tile-matching sessions. Games never touch balances.
type GameService struct {
	sessions game.SessionStore
	delay    time.Duration
	newRand  func() *rand.Rand
	now      func() time.Time
}

func NewGameService(sessions game.SessionStore, opponentDelay time.Duration) *GameService {
	return &GameService{
		sessions: sessions,
		delay:    opponentDelay,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		now: time.Now,
	}
}

func (s *GameService) WithClock(now func() time.Time) *GameService {
	s.now = now
	return s
}

// WithRand replaces the per-game shuffle source.
func (s *GameService) WithRand(newRand func() *rand.Rand) *GameService {
	s.newRand = newRand
	return s
}

func (s *GameService) Start(ctx context.Context, actor Actor) (*game.View, error) {
	g := game.New(actor.AccountID, s.newRand(), s.now().UTC())
	if err := s.sessions.Save(ctx, g); err != nil {
		return nil, err
	}
	zap.L().Info("game started",
		zap.String("game_id", g.ID.String()),
		zap.String("account_id", actor.AccountID.String()),
		zap.String("opening", g.Table[0].String()),
	)
	v := g.View(s.delay)
	return &v, nil
}

func (s *GameService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*game.View, error) {
	g, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	v := g.View(s.delay)
	return &v, nil
}

// Move plays the tile at index on side. An illegal placement leaves the game unchanged
// and reports applied=false.
func (s *GameService) Move(ctx context.Context, actor Actor, id uuid.UUID, index int, side string) (*game.View, error) {
	g, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	applied, err := g.Play(index, game.Side(side), s.now().UTC())
	if err != nil {
		return nil, mapGameError(err)
	}
	if applied {
		if err := s.sessions.Save(ctx, g); err != nil {
			return nil, err
		}
		s.recordResult(g)
	}
	v := g.View(s.delay)
	v.Applied = &applied
	return &v, nil
}

func (s *GameService) Pass(ctx context.Context, actor Actor, id uuid.UUID) (*game.View, error) {
	g, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := g.Pass(s.now().UTC()); err != nil {
		return nil, mapGameError(err)
	}
	if err := s.sessions.Save(ctx, g); err != nil {
		return nil, err
	}
	s.recordResult(g)
	v := g.View(s.delay)
	return &v, nil
}

func (s *GameService) load(ctx context.Context, actor Actor, id uuid.UUID) (*game.Game, error) {
	g, err := s.sessions.Load(ctx, id)
	if err != nil {
		if errors.Is(err, game.ErrSessionNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	if g.AccountID != actor.AccountID {
		return nil, ErrNotOwner
	}
	return g, nil
}

func (s *GameService) recordResult(g *game.Game) {
	if !g.Phase.Terminal() {
		return
	}
	observability.IncrementGameResult(string(g.Phase))
	zap.L().Info("game finished",
		zap.String("game_id", g.ID.String()),
		zap.String("result", string(g.Phase)),
		zap.Int("turns", g.Turn),
	)
}

func mapGameError(err error) error {
	switch {
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrNotPlayerTurn):
		return ErrGameOver
	case errors.Is(err, game.ErrMustPlay):
		return ErrMustPlay
	case errors.Is(err, game.ErrBadSide):
		return ErrInvalidSide
	}
	return fmt.Errorf("game: %w", err)
}
