package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"komisearch/internal/adapters"
	"komisearch/internal/bootstrap"
)

// Store maps an exact KataGo request line to the exact reply line.
type Store interface {
	Get(ctx context.Context, request string) (response string, ok bool, err error)
	Put(ctx context.Context, request, response string) error
}

var responsesBucket = []byte("katago_responses")

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(adapter *adapters.AdapterBolt) (*BoltStore, error) {
	err := adapter.DB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(responsesBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}
	return &BoltStore{db: adapter.DB}, nil
}

func (b *BoltStore) Get(_ context.Context, request string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(responsesBucket).Get([]byte(request))
		if v != nil {
			value, found = string(v), true
		}
		return nil
	})
	return value, found, err
}

// Put commits (and fsyncs) every entry on its own.
func (b *BoltStore) Put(_ context.Context, request, response string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(responsesBucket).Put([]byte(request), []byte(response))
	})
}

const redisKeyPrefix = "katago:"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(adapter *adapters.AdapterRedis) *RedisStore {
	return &RedisStore{client: adapter.GetClient()}
}

func (r *RedisStore) Get(ctx context.Context, request string) (string, bool, error) {
	v, err := r.client.Get(ctx, redisKeyPrefix+request).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) Put(ctx context.Context, request, response string) error {
	return r.client.Set(ctx, redisKeyPrefix+request, response, 0).Err()
}

// ZstdStore compresses replies before they reach the wrapped store. Keys stay
// as they are.
type ZstdStore struct {
	next Store
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

func NewZstdStore(next Store) (*ZstdStore, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &ZstdStore{next: next, enc: enc, dec: dec}, nil
}

// Close stops the codec goroutines. The wrapped store is left open.
func (z *ZstdStore) Close() error {
	z.dec.Close()
	return z.enc.Close()
}

func (z *ZstdStore) Get(ctx context.Context, request string) (string, bool, error) {
	v, ok, err := z.next.Get(ctx, request)
	if err != nil || !ok {
		return "", ok, err
	}
	raw, err := z.dec.DecodeAll([]byte(v), nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to decompress cached reply: %w", err)
	}
	return string(raw), true, nil
}

func (z *ZstdStore) Put(ctx context.Context, request, response string) error {
	return z.next.Put(ctx, request, string(z.enc.EncodeAll([]byte(response), nil)))
}

// OpenStore builds the configured cache backend. The returned closer releases
// whatever the backend opened.
func OpenStore(ctx context.Context, cfg *bootstrap.Config, log *zap.SugaredLogger) (Store, func() error, error) {
	var (
		store  Store
		closer func() error
	)
	switch cfg.CacheBackend {
	case "", "bolt":
		adapter := adapters.NewAdapterBolt(cfg, log)
		if err := adapter.Init(); err != nil {
			return nil, nil, err
		}
		bs, err := NewBoltStore(adapter)
		if err != nil {
			_ = adapter.Close()
			return nil, nil, err
		}
		store, closer = bs, adapter.Close
	case "redis":
		adapter := adapters.NewAdapterRedis(cfg, log)
		if err := adapter.Init(ctx); err != nil {
			return nil, nil, err
		}
		store = NewRedisStore(adapter)
		closer = func() error { return adapter.Close(context.Background()) }
	default:
		return nil, nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}

	if cfg.CacheCompress {
		zs, err := NewZstdStore(store)
		if err != nil {
			_ = closer()
			return nil, nil, err
		}
		closeBackend := closer
		store = zs
		closer = func() error {
			return errors.Join(zs.Close(), closeBackend())
		}
	}
	return store, closer, nil
}
