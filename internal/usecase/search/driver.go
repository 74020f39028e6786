// Package search runs the komi estimate over the handicap catalog and over every
// canonical n-stone position of the configured board sizes.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"komisearch/internal/bootstrap"
	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
	"komisearch/internal/usecase/estimate"
)

// RowSink receives rows in enumeration order. Flush is called after every batch.
type RowSink interface {
	WriteRow(ctx context.Context, row domain.Row) error
	Flush() error
}

// RowSaver is the part of the results repository the driver needs.
type RowSaver interface {
	SaveRow(ctx context.Context, row domain.Row) error
}

// SaverSink adapts a RowSaver. Every row is saved as it arrives.
type SaverSink struct {
	Saver RowSaver
}

func (s SaverSink) WriteRow(ctx context.Context, row domain.Row) error {
	return s.Saver.SaveRow(ctx, row)
}

func (s SaverSink) Flush() error {
	return nil
}

type Driver struct {
	oracle  estimate.Oracle
	log     *zap.SugaredLogger
	workers int
	sizes   []bootstrap.SizeLimit
	sinks   []RowSink
}

func NewDriver(oracle estimate.Oracle, log *zap.SugaredLogger, workers int, sizes []bootstrap.SizeLimit, sinks ...RowSink) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{
		oracle:  oracle,
		log:     log,
		workers: workers,
		sizes:   sizes,
		sinks:   sinks,
	}
}

func NewRow(p position.Position, est domain.Estimate, handicap bool) domain.Row {
	return domain.Row{
		Size:      p.Size(),
		Stones:    p.Printable(),
		NumStones: p.Len(),
		Handicap:  handicap,
		Estimate:  est,
	}
}

// Run estimates the handicap catalog and then every (size, n) set, flushing the
// sinks after each batch. It stops at the first failure; rows already flushed
// stay written.
func (d *Driver) Run(ctx context.Context) ([]domain.Row, error) {
	var rows []domain.Row
	collect := func(row domain.Row) error {
		rows = append(rows, row)
		return d.write(ctx, row)
	}

	if err := d.Batch(ctx, "handicap positions", position.Handicaps(), true, collect); err != nil {
		return rows, err
	}
	if err := d.flush(); err != nil {
		return rows, err
	}

	for _, limit := range d.sizes {
		for n := 0; n <= limit.MaxStones; n++ {
			positions := position.AllWithNStones(n, limit.Size)
			name := fmt.Sprintf("%dx%d %d-move positions", limit.Size, limit.Size, n)
			if err := d.Batch(ctx, name, positions, false, collect); err != nil {
				return rows, err
			}
			if err := d.flush(); err != nil {
				return rows, err
			}
		}
	}
	return rows, nil
}

// Batch estimates positions with up to d.workers in flight and hands the rows
// to emit in input order.
func (d *Driver) Batch(ctx context.Context, name string, positions []position.Position, handicap bool, emit func(domain.Row) error) error {
	started := time.Now()
	d.log.Infow("batch started", "batch", name, "positions", len(positions), "workers", d.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	var (
		mu      sync.Mutex
		results = make([]*domain.Row, len(positions))
		next    int
	)

	for i, p := range positions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			est, err := estimate.EstimateScore(gctx, d.oracle, p)
			if err != nil {
				d.log.Errorw("estimate failed", "position", p.String(), "error", err)
				return fmt.Errorf("%s: %w", p, err)
			}
			row := NewRow(p, est, handicap)
			d.log.Debugw("estimated", "position", p.String(), "komi", est.Komi, "neural", est.Neural, "winrate", est.Winrate)

			mu.Lock()
			defer mu.Unlock()
			results[i] = &row
			for next < len(results) && results[next] != nil {
				if err := emit(*results[next]); err != nil {
					return err
				}
				next++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.log.Infow("batch done", "batch", name, "positions", len(positions), "elapsed", time.Since(started).String())
	return nil
}

func (d *Driver) write(ctx context.Context, row domain.Row) error {
	for _, s := range d.sinks {
		if err := s.WriteRow(ctx, row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func (d *Driver) flush() error {
	for _, s := range d.sinks {
		if err := s.Flush(); err != nil {
			return fmt.Errorf("failed to flush output: %w", err)
		}
	}
	return nil
}
