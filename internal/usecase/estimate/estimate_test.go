package estimate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
)

// funcOracle answers from a winrate curve and records every komi asked.
type funcOracle struct {
	winrate func(komi float64) float64
	asked   []float64
	failAt  int
}

func (f *funcOracle) Query(_ context.Context, _ position.Position, komi float64) (domain.RootInfo, error) {
	f.asked = append(f.asked, komi)
	if f.failAt > 0 && len(f.asked) == f.failAt {
		return domain.RootInfo{}, errors.New("engine gone")
	}
	return domain.RootInfo{Winrate: f.winrate(komi), ScoreLead: 6.8 - komi}, nil
}

// falling models black's winrate dropping as komi grows, with 0.5 at target.
func falling(k, target float64) func(float64) float64 {
	return func(komi float64) float64 {
		return math.Max(0, math.Min(1, 0.5-k*(komi-target)))
	}
}

func TestAvgScore(t *testing.T) {
	cases := []struct {
		lower, upper, want float64
	}{
		{-150, 150, 0},
		{0, 150, 75},
		{-150, 0, -75},
		{0.5, 1, 0.5},
		{-1, -0.5, -0.5},
		{112.5, 150, 131},
		{-150, -112.5, -131},
		{6, 7.5, 6.5},
		{0.3, 0.9, 0},
	}
	for _, c := range cases {
		got := AvgScore(c.lower, c.upper)
		require.Equal(t, c.want, got, "avg(%g, %g)", c.lower, c.upper)
		require.Equal(t, got, AvgScore(c.lower, c.upper))
		require.Zero(t, math.Mod(got*2, 1), "%g is not on the half point grid", got)
	}
}

func TestEstimateScore(t *testing.T) {
	ctx := context.Background()
	p := position.Empty(9)

	t.Run("converges to the even komi", func(t *testing.T) {
		for _, target := range []float64{6.3, 7, -12.75, 0.1, 140.2, -149.8} {
			o := &funcOracle{winrate: falling(0.01, target)}
			got, err := EstimateScore(ctx, o, p)
			require.NoError(t, err)
			require.InDelta(t, target, got.Komi, 0.5, "target %g", target)
			require.Equal(t, o.winrate(got.Komi), got.Winrate)
		}
	})

	t.Run("picks the nearer bound", func(t *testing.T) {
		o := &funcOracle{winrate: falling(0.01, 6.3)}
		got, err := EstimateScore(ctx, o, p)
		require.NoError(t, err)
		require.Equal(t, 6.5, got.Komi)

		o = &funcOracle{winrate: falling(0.01, 6.2)}
		got, err = EstimateScore(ctx, o, p)
		require.NoError(t, err)
		require.Equal(t, 6.0, got.Komi)
	})

	t.Run("equally near bounds pick the upper one", func(t *testing.T) {
		o := &funcOracle{winrate: falling(0.25, 6.25)}
		got, err := EstimateScore(ctx, o, p)
		require.NoError(t, err)
		require.Equal(t, 6.5, got.Komi)
		require.Equal(t, 0.4375, got.Winrate)
	})

	t.Run("neural score is the lead at komi 0", func(t *testing.T) {
		o := &funcOracle{winrate: falling(0.01, 3)}
		got, err := EstimateScore(ctx, o, p)
		require.NoError(t, err)
		require.Equal(t, 6.8, got.Neural)
		require.Equal(t, 0.0, o.asked[0])
	})

	t.Run("flat oracle stays in range and needs ten steps", func(t *testing.T) {
		o := &funcOracle{winrate: func(float64) float64 { return 0.5 }}
		got, err := EstimateScore(ctx, o, p)
		require.NoError(t, err)
		require.GreaterOrEqual(t, got.Komi, MinKomi)
		require.LessOrEqual(t, got.Komi, MaxKomi)
		require.Equal(t, 150.0, got.Komi, "ties go to the upper bound")

		// neural query, bisection steps, then the two bounds
		steps := len(o.asked) - 3
		require.LessOrEqual(t, steps, 10)
	})

	t.Run("every komi asked is on the half point grid", func(t *testing.T) {
		o := &funcOracle{winrate: falling(0.003, -41.7)}
		_, err := EstimateScore(ctx, o, p)
		require.NoError(t, err)
		for _, k := range o.asked {
			require.Zero(t, math.Mod(k*2, 1), "%g", k)
		}
	})

	t.Run("repeat runs ask the same questions", func(t *testing.T) {
		a := &funcOracle{winrate: falling(0.02, 23.4)}
		b := &funcOracle{winrate: falling(0.02, 23.4)}
		_, err := EstimateScore(ctx, a, p)
		require.NoError(t, err)
		_, err = EstimateScore(ctx, b, p)
		require.NoError(t, err)
		require.Equal(t, a.asked, b.asked)
	})

	t.Run("oracle failure stops the search", func(t *testing.T) {
		o := &funcOracle{winrate: falling(0.01, 0), failAt: 4}
		_, err := EstimateScore(ctx, o, p)
		require.Error(t, err)
		require.Len(t, o.asked, 4)
	})
}
