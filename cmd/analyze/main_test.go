package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"komisearch/internal/bootstrap"
	"komisearch/internal/domain"
	"komisearch/internal/domain/position"
	errs "komisearch/internal/errors"
	"komisearch/internal/repository"
	"komisearch/internal/usecase/oracle"
	"komisearch/internal/usecase/search"
)

type evenAtSeven struct{}

func (evenAtSeven) Analyze(_ context.Context, request string) (string, error) {
	var req domain.AnalysisRequest
	if err := json.Unmarshal([]byte(request), &req); err != nil {
		return "", err
	}
	return fmt.Sprintf(`{"id":%q,"rootInfo":{"winrate":%g,"scoreLead":%g}}`, req.ID, 0.5-(req.Komi-7)/400, 7-req.Komi), nil
}

func testConfig(t *testing.T) *bootstrap.Config {
	dir := t.TempDir()
	return &bootstrap.Config{
		CacheBackend: "redis",
		RedisUrl:     miniredis.RunT(t).Addr(),
		OutputCsv:    filepath.Join(dir, "out.csv"),
		OutputReport: filepath.Join(dir, "report.md"),
		OutputPdf:    filepath.Join(dir, "report.pdf"),
		SearchSizes:  "3:1",
		Workers:      2,
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t).Sugar()

	t.Run("cache miss without katago fails the run", func(t *testing.T) {
		cfg := testConfig(t)
		err := run(ctx, cfg, log)
		require.ErrorIs(t, err, errs.ErrCacheMissReadOnly)

		csv, err := os.ReadFile(cfg.OutputCsv)
		require.NoError(t, err)
		require.Equal(t, "size,stones,score_komi,score_neural,winrate_komi\n", string(csv))

		_, err = os.Stat(cfg.OutputReport)
		require.True(t, os.IsNotExist(err))
	})

	t.Run("a filled cache replays without katago", func(t *testing.T) {
		cfg := testConfig(t)
		sizes, err := cfg.Sizes()
		require.NoError(t, err)

		store, closeStore, err := repository.OpenStore(ctx, cfg, log)
		require.NoError(t, err)
		rows, err := search.NewDriver(oracle.New(evenAtSeven{}, store, log, true), log, 4, sizes).Run(ctx)
		require.NoError(t, err)
		require.NoError(t, closeStore())

		require.NoError(t, run(ctx, cfg, log))

		csv, err := os.ReadFile(cfg.OutputCsv)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
		require.Len(t, lines, len(rows)+1)
		require.Len(t, rows, len(position.Handicaps())+1+6)

		md, err := os.ReadFile(cfg.OutputReport)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(md), "# "+reportTitle))

		pdf, err := os.ReadFile(cfg.OutputPdf)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(pdf), "%PDF-"))
	})
}
