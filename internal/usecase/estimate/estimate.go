// Package estimate finds the komi at which KataGo gives black an even game.
package estimate

import (
	"context"
	"fmt"
	"math"

	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
)

const (
	MinKomi = -150.0
	MaxKomi = 150.0
	// Step is the komi granularity of the search.
	Step = 0.5
)

type Oracle interface {
	Query(ctx context.Context, p position.Position, komi float64) (domain.RootInfo, error)
}

// AvgScore averages two komi values on the half point grid: both are doubled
// and truncated toward zero, averaged with integer division, then halved.
// Cache keys depend on this exact rounding.
func AvgScore(score1, score2 float64) float64 {
	a := int(score1 * 2)
	b := int(score2 * 2)
	return float64((a+b)/2) / 2
}

// EstimateScore bisects komi over [-150, 150] until the bracket is one step
// wide, then returns the bound whose black winrate is nearer 0.5. On a tie the
// upper bound wins. Neural is KataGo's own score lead at komi 0.
func EstimateScore(ctx context.Context, oracle Oracle, p position.Position) (domain.Estimate, error) {
	root, err := oracle.Query(ctx, p, 0)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("neural score: %w", err)
	}
	neural := root.ScoreLead

	lower, upper := MinKomi, MaxKomi
	for lower+Step < upper {
		middle := AvgScore(lower, upper)
		resp, err := oracle.Query(ctx, p, middle)
		if err != nil {
			return domain.Estimate{}, fmt.Errorf("komi %g: %w", middle, err)
		}
		if resp.Winrate < 0.5 {
			// black loses too often: komi is too high
			upper = middle
		} else {
			lower = middle
		}
	}

	low, err := oracle.Query(ctx, p, lower)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("komi %g: %w", lower, err)
	}
	high, err := oracle.Query(ctx, p, upper)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("komi %g: %w", upper, err)
	}

	if math.Abs(low.Winrate-0.5) < math.Abs(high.Winrate-0.5) {
		return domain.Estimate{Komi: lower, Neural: neural, Winrate: low.Winrate}, nil
	}
	return domain.Estimate{Komi: upper, Neural: neural, Winrate: high.Winrate}, nil
}
