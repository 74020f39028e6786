// Package position holds immutable board snapshots, their symmetry group and the
// exhaustive enumeration of small stone configurations.
package position

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	errs "komisearch/internal/errors"
)

// Position is an ordered list of stones on a size x size board. Values are never
// mutated; every operation returns a new Position.
type Position struct {
	stones []Stone
	size   int
}

// New panics when size is outside 1..MaxBoardSize or a stone is off the board;
// use ParsePosition for untrusted input.
func New(size int, stones ...Stone) Position {
	mustFit(size)
	for _, s := range stones {
		if s.X < 0 || s.Y < 0 || s.X >= size || s.Y >= size {
			panic(fmt.Sprintf("position: stone (%d, %d) is off a %dx%d board", s.X, s.Y, size, size))
		}
	}
	return Position{stones: slices.Clone(stones), size: size}
}

func Empty(size int) Position {
	mustFit(size)
	return Position{size: size}
}

func ValidSize(size int) bool {
	return size >= 1 && size <= MaxBoardSize
}

func mustFit(size int) {
	if !ValidSize(size) {
		panic(fmt.Sprintf("position: board size %d out of range 1..%d", size, MaxBoardSize))
	}
}

func (p Position) Size() int {
	return p.size
}

func (p Position) Len() int {
	return len(p.stones)
}

// Stones returns a copy of the stones in insertion order.
func (p Position) Stones() []Stone {
	return slices.Clone(p.stones)
}

func (p Position) WithStone(s Stone) Position {
	stones := make([]Stone, len(p.stones), len(p.stones)+1)
	copy(stones, p.stones)
	return Position{stones: append(stones, s), size: p.size}
}

// Compare orders positions by their stone tuple, then by board size. A stone list
// that is a prefix of another sorts first.
func Compare(a, b Position) int {
	if c := slices.CompareFunc(a.stones, b.stones, CompareStones); c != 0 {
		return c
	}
	return cmp.Compare(a.size, b.size)
}

func (p Position) Equal(o Position) bool {
	return Compare(p, o) == 0
}

// Key identifies the position by the same tuple Compare uses.
func (p Position) Key() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(p.size))
	for _, s := range p.stones {
		sb.WriteByte('|')
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Printable is the space separated stone listing, e.g. "BD4 WC3".
func (p Position) Printable() string {
	parts := make([]string, len(p.stones))
	for i, s := range p.stones {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

func (p Position) String() string {
	return fmt.Sprintf("Position(%d, %s)", p.size, p.Printable())
}

func (p Position) occupied(x, y int) bool {
	for _, s := range p.stones {
		if s.X == x && s.Y == y {
			return true
		}
	}
	return false
}

// ParsePosition reads a Printable listing back. Stones must be on the board and
// on distinct intersections.
func ParsePosition(size int, listing string) (Position, error) {
	if !ValidSize(size) {
		return Position{}, fmt.Errorf("board size %d out of range", size)
	}
	p := Empty(size)
	for _, field := range strings.Fields(listing) {
		s, err := ParseStone(field)
		if err != nil {
			return Position{}, err
		}
		if s.X >= size || s.Y >= size {
			return Position{}, fmt.Errorf("%w: %s is off a %dx%d board", errs.ErrBadStone, field, size, size)
		}
		if p.occupied(s.X, s.Y) {
			return Position{}, fmt.Errorf("%w: %s is already occupied", errs.ErrBadStone, s.Vertex())
		}
		p = p.WithStone(s)
	}
	return p, nil
}
