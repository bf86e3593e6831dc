package game

import (
	"fmt"
	"math/rand/v2"
)

const (
	MaxPip   = 6
	SetSize  = 28
	HandSize = 7
)

// Tile is one domino. A and B are pip counts from 0 to MaxPip.
type Tile struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (t Tile) String() string {
	return fmt.Sprintf("[%d|%d]", t.A, t.B)
}

// Has reports whether either half shows v.
func (t Tile) Has(v int) bool {
	return t.A == v || t.B == v
}

// Flip swaps the halves.
func (t Tile) Flip() Tile {
	return Tile{A: t.B, B: t.A}
}

// Same compares tiles regardless of orientation.
func (t Tile) Same(o Tile) bool {
	return t == o || t == o.Flip()
}

// FullSet returns the 28 tiles of a double-six set in canonical order.
func FullSet() []Tile {
	set := make([]Tile, 0, SetSize)
	for a := 0; a <= MaxPip; a++ {
		for b := a; b <= MaxPip; b++ {
			set = append(set, Tile{A: a, B: b})
		}
	}
	return set
}

// Deal is the result of shuffling and dealing a full set.
type Deal struct {
	Player   []Tile
	Opponent []Tile
	Opening  Tile
	Boneyard []Tile
}

// NewDeal shuffles a full set and deals 7 tiles to each side plus the opening tile.
// The remaining 13 tiles form the boneyard, which is not drawn from.
func NewDeal(rng *rand.Rand) Deal {
	set := FullSet()
	rng.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
	return Deal{
		Player:   set[:HandSize:HandSize],
		Opponent: set[HandSize : 2*HandSize : 2*HandSize],
		Opening:  set[2*HandSize],
		Boneyard: set[2*HandSize+1:],
	}
}
