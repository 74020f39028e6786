package position

import (
	"iter"
	"maps"
	"slices"
)

// AllWithAddedStone yields every position with one more stone of either color on
// an empty intersection. Legality (captures, suicide) is not checked.
func (p Position) AllWithAddedStone() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for x := range p.size {
			for y := range p.size {
				if p.occupied(x, y) {
					continue
				}
				for _, color := range []Color{Black, White} {
					if !yield(p.WithStone(Stone{Color: color, X: x, Y: y})) {
						return
					}
				}
			}
		}
	}
}

// AllWithNStones returns the canonical forms of every placement of n stones on an
// empty size x size board, sorted by Compare. Each level is built from the
// previous one; symmetric duplicates collapse on their canonical key. Sizes the
// column labels cannot describe have no positions.
func AllWithNStones(n, size int) []Position {
	if !ValidSize(size) {
		return nil
	}
	level := []Position{Empty(size)}
	for range n {
		next := make(map[string]Position)
		for _, p := range level {
			for child := range p.AllWithAddedStone() {
				c := child.Canonicalize(true)
				next[c.Key()] = c
			}
		}
		level = slices.SortedFunc(maps.Values(next), Compare)
	}
	return level
}
