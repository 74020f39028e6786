package position

type point struct{ x, y int }

// Star points. Names follow the order handicap stones are placed in.
var (
	a9, b9, c9, d9, e9 = point{6, 6}, point{2, 2}, point{6, 2}, point{2, 6}, point{4, 4}

	a13, b13, c13, d13, e13 = point{9, 9}, point{3, 3}, point{9, 3}, point{3, 9}, point{6, 6}
	f13, g13, h13, i13      = point{3, 6}, point{9, 6}, point{6, 9}, point{6, 3}

	a19, b19, c19, d19, e19 = point{15, 15}, point{3, 3}, point{15, 3}, point{3, 15}, point{9, 9}
	f19, g19, h19, i19      = point{3, 9}, point{15, 9}, point{9, 15}, point{9, 3}
)

type handicapTemplate struct {
	size   int
	points []point
}

var handicapTemplates = []handicapTemplate{
	// empty small boards, for their komi
	{3, nil}, {4, nil}, {5, nil}, {6, nil}, {7, nil}, {8, nil},
	{10, nil}, {11, nil}, {12, nil}, {14, nil}, {15, nil}, {16, nil}, {17, nil}, {18, nil},

	{19, nil},
	{19, []point{a19, b19}},
	{19, []point{a19, b19, c19}},
	{19, []point{a19, b19, c19, d19}},
	{19, []point{a19, b19, c19, d19, e19}},
	{19, []point{a19, b19, c19, d19, f19, g19}},
	{19, []point{a19, b19, c19, d19, e19, f19, g19}},
	{19, []point{a19, b19, c19, d19, f19, g19, h19, i19}},
	{19, []point{a19, b19, c19, d19, e19, f19, g19, h19, i19}},

	{13, nil},
	{13, []point{a13, b13}},
	{13, []point{a13, b13, c13}},
	{13, []point{a13, b13, c13, d13}},
	{13, []point{a13, b13, c13, d13, e13}},
	{13, []point{a13, b13, c13, d13, f13, g13}},
	{13, []point{a13, b13, c13, d13, e13, f13, g13}},
	{13, []point{a13, b13, c13, d13, f13, g13, h13, i13}},
	{13, []point{a13, b13, c13, d13, e13, f13, g13, h13, i13}},

	{9, nil},
	{9, []point{a9, b9}},
	{9, []point{a9, b9, c9}},
	{9, []point{a9, b9, c9, d9}},
	{9, []point{a9, b9, c9, d9, e9}},
}

var handicaps = buildHandicaps()

func buildHandicaps() []Position {
	out := make([]Position, 0, len(handicapTemplates))
	for _, t := range handicapTemplates {
		p := Empty(t.size)
		for _, pt := range t.points {
			p = p.WithStone(Stone{Color: Black, X: pt.x, Y: pt.y})
		}
		out = append(out, p)
	}
	return out
}

// Handicaps returns the standard benchmark positions: the empty 3x3 to 18x18
// boards (9 and 13 excluded), then the classic black handicap layouts on 19x19,
// 13x13 and 9x9, each led by its empty board.
func Handicaps() []Position {
	out := make([]Position, len(handicaps))
	copy(out, handicaps)
	return out
}
