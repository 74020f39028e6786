package oracle

import (
	"context"

	"go.uber.org/zap"

	"komisearch/internal/bootstrap"
	"komisearch/internal/repository"
)

// Open wires the configured cache and, with CALC_ENABLED, a KataGo process.
// closer releases both.
func Open(ctx context.Context, cfg *bootstrap.Config, log *zap.SugaredLogger) (o *Oracle, closer func() error, err error) {
	store, closeStore, err := repository.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.CalcEnabled {
		log.Infow("katago disabled, answering from cache only", "backend", cfg.CacheBackend)
		return New(nil, store, log, false), closeStore, nil
	}

	client, err := repository.NewKatagoClient(ctx, cfg, log)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	closeAll := func() error {
		err := client.Close()
		if cerr := closeStore(); err == nil {
			err = cerr
		}
		return err
	}
	return New(client, store, log, true), closeAll, nil
}
