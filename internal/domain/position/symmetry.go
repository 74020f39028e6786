package position

import (
	"iter"
	"slices"
)

// Flipped mirrors the board left to right: (x, y) -> (size-1-x, y).
func (p Position) Flipped() Position {
	stones := make([]Stone, len(p.stones))
	for i, s := range p.stones {
		stones[i] = Stone{Color: s.Color, X: p.size - s.X - 1, Y: s.Y}
	}
	return Position{stones: stones, size: p.size}
}

// Rotated applies the quarter turn (x, y) -> (y, size-1-x) n mod 4 times.
func (p Position) Rotated(n int) Position {
	n = ((n % 4) + 4) % 4
	stones := slices.Clone(p.stones)
	for range n {
		for i, s := range stones {
			stones[i] = Stone{Color: s.Color, X: s.Y, Y: p.size - s.X - 1}
		}
	}
	return Position{stones: stones, size: p.size}
}

// Symmetries yields the 8 images of p under the dihedral group: the four
// rotations, then the four rotations of the mirror image.
func (p Position) Symmetries() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for _, base := range []Position{p, p.Flipped()} {
			for n := range 4 {
				if !yield(base.Rotated(n)) {
					return
				}
			}
		}
	}
}

// Canonicalize with mirror=false only sorts the stones. With mirror=true it
// returns the smallest sorted image over all 8 symmetries.
func (p Position) Canonicalize(mirror bool) Position {
	if !mirror {
		stones := slices.Clone(p.stones)
		slices.SortFunc(stones, CompareStones)
		return Position{stones: stones, size: p.size}
	}

	var best Position
	first := true
	for sym := range p.Symmetries() {
		c := sym.Canonicalize(false)
		if first || Compare(c, best) < 0 {
			best, first = c, false
		}
	}
	return best
}
