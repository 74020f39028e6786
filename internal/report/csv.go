package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"komisearch/internal/domain"
)

var csvHeader = []string{"size", "stones", "score_komi", "score_neural", "winrate_komi"}

// CSVWriter is a row sink writing the tabular output.
type CSVWriter struct {
	w *csv.Writer
}

func NewCSVWriter(out io.Writer) (*CSVWriter, error) {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &CSVWriter{w: w}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// csvFloat is the shortest exact form with at least one decimal: 7.0, 6.5, 0.493.
func csvFloat(v float64) string {
	s := formatFloat(v)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

func (c *CSVWriter) WriteRow(_ context.Context, row domain.Row) error {
	return c.w.Write([]string{
		strconv.Itoa(row.Size),
		row.Stones,
		csvFloat(row.Komi),
		csvFloat(row.Neural),
		csvFloat(row.Winrate),
	})
}

func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
