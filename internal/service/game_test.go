package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/game"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Save(ctx context.Context, g *game.Game) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *mockSessionStore) Load(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	args := m.Called(ctx, id)
	if g, ok := args.Get(0).(*game.Game); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

func newGameService(store game.SessionStore) *GameService {
	return NewGameService(store, 800*time.Millisecond).
		WithRand(func() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }).
		WithClock(func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) })
}

func fixedGame(owner uuid.UUID) *game.Game {
	return &game.Game{
		ID:           uuid.New(),
		AccountID:    owner,
		Phase:        game.PhasePlayerTurn,
		Table:        []game.Tile{{A: 2, B: 2}},
		PlayerHand:   []game.Tile{{A: 2, B: 5}, {A: 6, B: 6}},
		OpponentHand: []game.Tile{{A: 0, B: 0}, {A: 1, B: 1}},
	}
}

func TestGameStartSavesSession(t *testing.T) {
	store := new(mockSessionStore)
	store.On("Save", mock.Anything, mock.AnythingOfType("*game.Game")).Return(nil).Once()
	svc := newGameService(store)
	actor := Actor{AccountID: uuid.New(), Role: domain.RoleUser}

	v, err := svc.Start(context.Background(), actor)
	require.NoError(t, err)
	assert.Equal(t, game.PhasePlayerTurn, v.Phase)
	assert.Len(t, v.PlayerHand, game.HandSize)
	assert.Equal(t, game.HandSize, v.OpponentTiles)
	assert.Equal(t, int64(800), v.OpponentDelayMs)

	saved := store.Calls[0].Arguments.Get(1).(*game.Game)
	assert.Equal(t, actor.AccountID, saved.AccountID)
	store.AssertExpectations(t)
}

func TestGameMove(t *testing.T) {
	owner := Actor{AccountID: uuid.New(), Role: domain.RoleUser}

	t.Run("legal_move_is_saved", func(t *testing.T) {
		store := new(mockSessionStore)
		g := fixedGame(owner.AccountID)
		store.On("Load", mock.Anything, g.ID).Return(g, nil).Once()
		store.On("Save", mock.Anything, g).Return(nil).Once()

		v, err := newGameService(store).Move(context.Background(), owner, g.ID, 0, "right")
		require.NoError(t, err)
		require.NotNil(t, v.Applied)
		assert.True(t, *v.Applied)
		assert.Equal(t, []game.Tile{{A: 2, B: 2}, {A: 2, B: 5}}, v.Table)
		require.NotNil(t, v.LastOpponent)
		assert.True(t, v.LastOpponent.Pass)
		store.AssertExpectations(t)
	})

	t.Run("illegal_move_is_not_saved", func(t *testing.T) {
		store := new(mockSessionStore)
		g := fixedGame(owner.AccountID)
		store.On("Load", mock.Anything, g.ID).Return(g, nil).Once()

		v, err := newGameService(store).Move(context.Background(), owner, g.ID, 1, "left")
		require.NoError(t, err)
		assert.False(t, *v.Applied)
		assert.Len(t, v.PlayerHand, 2)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("bad_side", func(t *testing.T) {
		store := new(mockSessionStore)
		g := fixedGame(owner.AccountID)
		store.On("Load", mock.Anything, g.ID).Return(g, nil).Once()

		_, err := newGameService(store).Move(context.Background(), owner, g.ID, 0, "up")
		require.ErrorIs(t, err, ErrInvalidSide)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("winning_move", func(t *testing.T) {
		store := new(mockSessionStore)
		g := fixedGame(owner.AccountID)
		g.PlayerHand = g.PlayerHand[:1]
		store.On("Load", mock.Anything, g.ID).Return(g, nil).Once()
		store.On("Save", mock.Anything, g).Return(nil).Once()

		v, err := newGameService(store).Move(context.Background(), owner, g.ID, 0, "left")
		require.NoError(t, err)
		assert.Equal(t, game.PhaseWon, v.Phase)

		store.On("Load", mock.Anything, g.ID).Return(g, nil).Once()
		_, err = newGameService(store).Move(context.Background(), owner, g.ID, 0, "left")
		require.ErrorIs(t, err, ErrGameOver)
	})
}

func TestGameOwnershipAndLookup(t *testing.T) {
	store := new(mockSessionStore)
	owner := uuid.New()
	g := fixedGame(owner)
	missing := uuid.New()
	store.On("Load", mock.Anything, g.ID).Return(g, nil)
	store.On("Load", mock.Anything, missing).Return(nil, game.ErrSessionNotFound)
	svc := newGameService(store)

	_, err := svc.Get(context.Background(), Actor{AccountID: uuid.New(), Role: domain.RoleUser}, g.ID)
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.Get(context.Background(), Actor{AccountID: owner, Role: domain.RoleUser}, missing)
	require.ErrorIs(t, err, ErrGameNotFound)

	v, err := svc.Get(context.Background(), Actor{AccountID: owner, Role: domain.RoleUser}, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, v.ID)
}

func TestGamePass(t *testing.T) {
	owner := Actor{AccountID: uuid.New(), Role: domain.RoleUser}

	t.Run("must_play", func(t *testing.T) {
		store := new(mockSessionStore)
		g := fixedGame(owner.AccountID)
		store.On("Load", mock.Anything, g.ID).Return(g, nil).Once()

		_, err := newGameService(store).Pass(context.Background(), owner, g.ID)
		require.ErrorIs(t, err, ErrMustPlay)
	})

	t.Run("blocked", func(t *testing.T) {
		store := new(mockSessionStore)
		g := fixedGame(owner.AccountID)
		g.PlayerHand = []game.Tile{{A: 6, B: 6}}
		store.On("Load", mock.Anything, g.ID).Return(g, nil).Once()
		store.On("Save", mock.Anything, g).Return(nil).Once()

		v, err := newGameService(store).Pass(context.Background(), owner, g.ID)
		require.NoError(t, err)
		assert.Equal(t, game.PhaseBlocked, v.Phase)
		store.AssertExpectations(t)
	})

	t.Run("save_failure", func(t *testing.T) {
		store := new(mockSessionStore)
		g := fixedGame(owner.AccountID)
		g.PlayerHand = []game.Tile{{A: 6, B: 6}}
		boom := errors.New("redis down")
		store.On("Load", mock.Anything, g.ID).Return(g, nil).Once()
		store.On("Save", mock.Anything, g).Return(boom).Once()

		_, err := newGameService(store).Pass(context.Background(), owner, g.ID)
		require.ErrorIs(t, err, boom)
	})
}
