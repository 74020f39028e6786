package adapters

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"komisearch/internal/bootstrap"
)

// AdapterBolt owns the on-disk cache file. bbolt takes an exclusive lock, so a
// second process on the same file waits up to the open timeout and fails.
type AdapterBolt struct {
	DB  *bolt.DB
	cfg *bootstrap.Config
	log *zap.SugaredLogger
}

func NewAdapterBolt(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterBolt {
	return &AdapterBolt{
		cfg: cfg,
		log: log,
	}
}

func (a *AdapterBolt) Init() error {
	db, err := bolt.Open(a.cfg.CachePath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("failed to open cache %s: %w", a.cfg.CachePath, err)
	}
	a.DB = db
	a.log.Infow("opened cache", "path", a.cfg.CachePath)
	return nil
}

func (a *AdapterBolt) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
