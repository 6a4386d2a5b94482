package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/config"
	dbRedis "github.com/kailas-cloud/searchkv/internal/db/redis"
	"github.com/kailas-cloud/searchkv/internal/domain"
	logpkg "github.com/kailas-cloud/searchkv/internal/logger"
	"github.com/kailas-cloud/searchkv/internal/metrics"
	recordrepo "github.com/kailas-cloud/searchkv/internal/repository/record"
	searchrepo "github.com/kailas-cloud/searchkv/internal/repository/search"
	queryuc "github.com/kailas-cloud/searchkv/internal/usecase/query"
)

// app is the composition root shared by all commands.
type app struct {
	cfg     config.Config
	env     string
	logger  *zap.Logger
	store   *dbRedis.Store
	records *recordrepo.Repo
	search  *searchrepo.Repo
}

func loadConfig(c *cli.Command) (config.Config, string, error) {
	env := c.String("env")
	if path := c.String("config"); path != "" {
		cfg, err := config.LoadFile(path)
		return cfg, env, err
	}
	cfg, err := config.Load(env)
	return cfg, env, err
}

// newApp loads config, connects to Redis and binds the collection repository.
func newApp(ctx context.Context, c *cli.Command) (*app, error) {
	cfg, env, err := loadConfig(c)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	coll := domain.NewCollection(cfg.Collection.BucketType, cfg.Collection.BucketName, cfg.Collection.Index)
	records, err := recordrepo.Bind(ctx, store, coll)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("bind collection: %w", err)
	}

	logger.Debug("Collection bound",
		zap.String("prefix", coll.KeyPrefix()),
		zap.String("index", coll.Index),
		zap.String("datatype", string(records.Datatype())),
	)

	return &app{
		cfg:     cfg,
		env:     env,
		logger:  logger,
		store:   store,
		records: records,
		search:  searchrepo.New(store, coll.KeyPrefix()),
	}, nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

// sessionFactory wires instrumented backends into a per-caller session.
func (a *app) sessionFactory() func(*zap.Logger) *queryuc.Session {
	metrics.RegisterBackendMetrics()
	searcher := queryuc.NewInstrumentedSearcher(a.search, a.logger)
	records := queryuc.NewInstrumentedRecords(a.records, a.logger)
	index := a.records.Collection().Index

	return func(log *zap.Logger) *queryuc.Session {
		return queryuc.NewSession(searcher, records, index, queryuc.WithLogger(log))
	}
}
