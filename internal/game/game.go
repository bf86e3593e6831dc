// Package game implements the single-player tile-matching game: a double-six domino
// round against a scripted opponent.
package game

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhasePlayerTurn   Phase = "player_turn"
	PhaseOpponentTurn Phase = "opponent_turn"
	PhaseWon          Phase = "won"
	PhaseLost         Phase = "lost"
	PhaseBlocked      Phase = "blocked"
)

// Terminal reports whether no further moves are accepted.
func (p Phase) Terminal() bool {
	return p == PhaseWon || p == PhaseLost || p == PhaseBlocked
}

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

var (
	ErrGameOver      = errors.New("game is over")
	ErrNotPlayerTurn = errors.New("not the player's turn")
	ErrMustPlay      = errors.New("a playable tile is in hand")
	ErrBadSide       = errors.New("side must be left or right")
)

// Game is the full session state. OpponentHand and Boneyard stay server-side.
type Game struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	Phase        Phase     `json:"phase"`
	Table        []Tile    `json:"table"`
	PlayerHand   []Tile    `json:"player_hand"`
	OpponentHand []Tile    `json:"opponent_hand"`
	Boneyard     []Tile    `json:"boneyard"`
	Passes       int       `json:"passes"`
	Turn         int       `json:"turn"`
	LastOpponent *Move     `json:"last_opponent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Move records a play. A nil tile is a pass.
type Move struct {
	Tile *Tile `json:"tile,omitempty"`
	Side Side  `json:"side,omitempty"`
	Pass bool  `json:"pass,omitempty"`
}

// New deals a fresh game. The player always moves first.
func New(accountID uuid.UUID, rng *rand.Rand, now time.Time) *Game {
	d := NewDeal(rng)
	return &Game{
		ID:           uuid.New(),
		AccountID:    accountID,
		Phase:        PhasePlayerTurn,
		Table:        []Tile{d.Opening},
		PlayerHand:   d.Player,
		OpponentHand: d.Opponent,
		Boneyard:     d.Boneyard,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (g *Game) LeftEnd() int  { return g.Table[0].A }
func (g *Game) RightEnd() int { return g.Table[len(g.Table)-1].B }

// CanPlay reports whether t fits the given end of the table.
func (g *Game) CanPlay(t Tile, side Side) bool {
	switch side {
	case SideLeft:
		return t.Has(g.LeftEnd())
	case SideRight:
		return t.Has(g.RightEnd())
	}
	return false
}

// HasPlayable reports whether any tile in hand fits either end.
func (g *Game) HasPlayable(hand []Tile) bool {
	return slices.ContainsFunc(hand, func(t Tile) bool {
		return g.CanPlay(t, SideLeft) || g.CanPlay(t, SideRight)
	})
}

// place orients t so that it joins the chosen end and adds it to the table.
func (g *Game) place(t Tile, side Side) Tile {
	if side == SideLeft {
		if t.B != g.LeftEnd() {
			t = t.Flip()
		}
		g.Table = slices.Insert(g.Table, 0, t)
		return t
	}
	if t.A != g.RightEnd() {
		t = t.Flip()
	}
	g.Table = append(g.Table, t)
	return t
}

// Play places the tile at index in the player's hand on one end of the table and then
// lets the opponent respond. It returns false, leaving the game unchanged, when the tile
// does not fit.
func (g *Game) Play(index int, side Side, now time.Time) (bool, error) {
	if err := g.ready(); err != nil {
		return false, err
	}
	if side != SideLeft && side != SideRight {
		return false, ErrBadSide
	}
	if index < 0 || index >= len(g.PlayerHand) {
		return false, nil
	}
	t := g.PlayerHand[index]
	if !g.CanPlay(t, side) {
		return false, nil
	}

	g.place(t, side)
	g.PlayerHand = slices.Delete(g.PlayerHand, index, index+1)
	g.Passes = 0
	g.Turn++
	g.UpdatedAt = now
	if len(g.PlayerHand) == 0 {
		g.Phase = PhaseWon
		g.LastOpponent = nil
		return true, nil
	}
	g.Phase = PhaseOpponentTurn
	g.opponentTurn()
	return true, nil
}

// Pass gives the turn to the opponent. Only allowed with no playable tile in hand.
func (g *Game) Pass(now time.Time) error {
	if err := g.ready(); err != nil {
		return err
	}
	if g.HasPlayable(g.PlayerHand) {
		return ErrMustPlay
	}
	g.Passes++
	g.Turn++
	g.UpdatedAt = now
	if g.Passes >= 2 {
		g.Phase = PhaseBlocked
		return nil
	}
	g.Phase = PhaseOpponentTurn
	g.opponentTurn()
	return nil
}

func (g *Game) ready() error {
	if g.Phase.Terminal() {
		return ErrGameOver
	}
	if g.Phase != PhasePlayerTurn {
		return ErrNotPlayerTurn
	}
	return nil
}

// opponentTurn plays the first tile in hand order that fits the left end, or failing
// that the right end. With nothing playable the opponent passes.
func (g *Game) opponentTurn() {
	for i, t := range g.OpponentHand {
		var side Side
		switch {
		case g.CanPlay(t, SideLeft):
			side = SideLeft
		case g.CanPlay(t, SideRight):
			side = SideRight
		default:
			continue
		}
		placed := g.place(t, side)
		g.OpponentHand = slices.Delete(g.OpponentHand, i, i+1)
		g.LastOpponent = &Move{Tile: &placed, Side: side}
		g.Passes = 0
		if len(g.OpponentHand) == 0 {
			g.Phase = PhaseLost
			return
		}
		g.Phase = PhasePlayerTurn
		return
	}

	g.LastOpponent = &Move{Pass: true}
	g.Passes++
	if g.Passes >= 2 {
		g.Phase = PhaseBlocked
		return
	}
	g.Phase = PhasePlayerTurn
}

// View is what the player is allowed to see.
type View struct {
	ID              uuid.UUID `json:"id"`
	Phase           Phase     `json:"phase"`
	Table           []Tile    `json:"table"`
	LeftEnd         int       `json:"left_end"`
	RightEnd        int       `json:"right_end"`
	PlayerHand      []Tile    `json:"player_hand"`
	OpponentTiles   int       `json:"opponent_tiles"`
	BoneyardTiles   int       `json:"boneyard_tiles"`
	CanPass         bool      `json:"can_pass"`
	LastOpponent    *Move     `json:"last_opponent,omitempty"`
	OpponentDelayMs int64     `json:"opponent_delay_ms"`
	Applied         *bool     `json:"applied,omitempty"`
}

// View renders the session for the player.
func (g *Game) View(opponentDelay time.Duration) View {
	return View{
		ID:              g.ID,
		Phase:           g.Phase,
		Table:           g.Table,
		LeftEnd:         g.LeftEnd(),
		RightEnd:        g.RightEnd(),
		PlayerHand:      g.PlayerHand,
		OpponentTiles:   len(g.OpponentHand),
		BoneyardTiles:   len(g.Boneyard),
		CanPass:         g.Phase == PhasePlayerTurn && !g.HasPlayable(g.PlayerHand),
		LastOpponent:    g.LastOpponent,
		OpponentDelayMs: opponentDelay.Milliseconds(),
	}
}
