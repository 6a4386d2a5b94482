package searchkv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/searchkv/internal/db/redis"
	"github.com/kailas-cloud/searchkv/internal/domain"
	recordrepo "github.com/kailas-cloud/searchkv/internal/repository/record"
	searchrepo "github.com/kailas-cloud/searchkv/internal/repository/search"
	healthuc "github.com/kailas-cloud/searchkv/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the searchkv entry point. It owns one Redis connection pool
// shared by every bucket it opens.
type Client struct {
	store  *dbRedis.Store
	obs    *observer
	logger *zap.Logger
}

// New creates a Client and connects to Redis.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("searchkv: database address required (use WithRedis or WithAddrs)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("searchkv: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("searchkv: database not ready: %w", err)
	}

	client, err := wireClient(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return client, nil
}

func wireClient(store *dbRedis.Store, cfg *clientConfig) (*Client, error) {
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{store: store, obs: obs, logger: logger}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// BucketOption configures how a bucket is opened.
type BucketOption func(*bucketConfig)

type bucketConfig struct {
	index string
}

// WithIndex names the search index of the bucket. Default: the bucket name.
func WithIndex(name string) BucketOption {
	return func(c *bucketConfig) {
		c.index = name
	}
}

// Bucket opens the bucket "{bucketType}:{bucketName}:" and binds its save
// strategy to the datatype reported by the index. A missing index binds
// the plain strategy; queries then fail until the index is created.
func (c *Client) Bucket(ctx context.Context, bucketType, bucketName string, opts ...BucketOption) (b *Bucket, err error) {
	start := time.Now()
	defer func() { c.obs.observe("bucket", start, err) }()

	var bc bucketConfig
	for _, o := range opts {
		o(&bc)
	}
	if bucketName == "" {
		return nil, errors.New("searchkv: bucket name required")
	}

	coll := domain.NewCollection(bucketType, bucketName, bc.index)
	records, err := recordrepo.Bind(ctx, c.store, coll)
	if err != nil {
		return nil, fmt.Errorf("bind bucket %s: %w", coll.KeyPrefix(), err)
	}

	return newBucket(
		records,
		searchrepo.New(c.store, coll.KeyPrefix()),
		healthuc.New(c.store, c.store, coll.Index),
		c.obs,
		c.logger.With(zap.String("bucket", coll.KeyPrefix())),
	), nil
}
