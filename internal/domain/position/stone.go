package position

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	errs "komisearch/internal/errors"
)

// Color of a stone. Black moves first.
type Color uint8

const (
	Black Color = iota
	White
)

func (c Color) String() string {
	if c == White {
		return "W"
	}
	return "B"
}

func ParseColor(s string) (Color, error) {
	switch strings.ToUpper(s) {
	case "B":
		return Black, nil
	case "W":
		return White, nil
	}
	return Black, fmt.Errorf("%w: color %q", errs.ErrBadStone, s)
}

// Board columns skip the letter I.
const columns = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// MaxBoardSize is the largest board the column labels can describe.
const MaxBoardSize = len(columns)

type Stone struct {
	Color Color
	X     int
	Y     int
}

func (s Stone) Vertex() string {
	return string(columns[s.X]) + strconv.Itoa(s.Y+1)
}

func (s Stone) String() string {
	return s.Color.String() + s.Vertex()
}

// CompareStones orders stones by (color, x, y).
func CompareStones(a, b Stone) int {
	if c := cmp.Compare(a.Color, b.Color); c != 0 {
		return c
	}
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

// ParseStone reads the "BD4" notation produced by Stone.String.
func ParseStone(s string) (Stone, error) {
	if len(s) < 3 {
		return Stone{}, fmt.Errorf("%w: %q", errs.ErrBadStone, s)
	}
	color, err := ParseColor(s[:1])
	if err != nil {
		return Stone{}, err
	}
	x := strings.IndexByte(columns, strings.ToUpper(s[1:2])[0])
	if x < 0 {
		return Stone{}, fmt.Errorf("%w: column in %q", errs.ErrBadStone, s)
	}
	row, err := strconv.Atoi(s[2:])
	if err != nil || row < 1 {
		return Stone{}, fmt.Errorf("%w: row in %q", errs.ErrBadStone, s)
	}
	return Stone{Color: color, X: x, Y: row - 1}, nil
}
