package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/bootstrap"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/cache"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/config"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/constants"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/fetch"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/flags"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/storage"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/stream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Indexer fans each polled batch out to the cache, the subscribers and the history store
type Indexer struct {
	cache     storage.PoolCache
	publisher storage.PoolPublisher
	store     storage.PoolStore // nil when ClickHouse is unavailable
	logger    *logrus.Logger
}

// ProcessPools is the stream.PoolPoller handler
func (idx *Indexer) ProcessPools(ctx context.Context, pools []*models.LiquidityPool) {
	log := idx.logger.WithField("pools", len(pools))

	// 1. Latest snapshot per pool
	if err := idx.cache.PutPools(ctx, pools); err != nil {
		log.WithError(err).Warn("redis cache error")
	}

	// 2. Real-time distribution
	if err := idx.publisher.PublishPools(ctx, pools); err != nil {
		log.WithError(err).Warn("pub/sub error")
	}

	// 3. History
	if idx.store != nil {
		if err := idx.store.InsertPoolSnapshots(ctx, pools); err != nil {
			log.WithError(err).Error("clickhouse error")
			return
		}
	}

	log.Info("pools processed")
}

// flaggedFetcher re-reads the adapter switches before every poll
type flaggedFetcher struct {
	dexs   dex.Registry
	opts   fetch.Options
	flags  *flags.Store
	logger *logrus.Logger
}

func (f *flaggedFetcher) GetLiquidityPools(ctx context.Context, filter fetch.PairFilter) ([]*models.LiquidityPool, error) {
	names := f.dexs.Names()
	enabled, disabled, err := f.flags.SelectDexs(ctx, names)
	if err != nil {
		f.logger.WithError(err).Warn("failed to read dex flags, polling every adapter")
		enabled = names
	} else if len(disabled) > 0 {
		f.logger.WithField("disabled", disabled).Debug("skipping switched off adapters")
	}

	req, err := fetch.NewRequest(f.dexs, f.opts).ForDexs(enabled...)
	if err != nil {
		return nil, err
	}
	return req.GetLiquidityPools(ctx, filter)
}

func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	envPath := filepath.Join(filepath.Dir(filename), "../..", ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rclient.Close()

	poolCache, err := cache.NewRedisCache(rclient, cfg.MetadataCacheTTL)
	if err != nil {
		logger.WithError(err).Fatal("failed to create pool cache")
	}
	// Snapshots outlive a few missed polls, then expire with the pool
	poolCache.WithPoolTTL(constants.PoolSnapshotPolls * cfg.PollInterval)

	indexer := &Indexer{
		cache:     poolCache,
		publisher: cache.NewPubSubManager(rclient, logger),
		logger:    logger,
	}

	store, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("clickhouse unavailable, pool history is not recorded")
	} else {
		indexer.store = store
		defer store.Close()
	}

	core, err := bootstrap.NewCore(cfg, rclient, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to build fetch stack")
	}

	flagStore, err := flags.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create flags store")
	}

	poller := stream.NewPoolPoller(stream.PoolPollerConfig{
		Fetcher: &flaggedFetcher{
			dexs:   core.Dexs,
			opts:   core.FetchOptions,
			flags:  flagStore,
			logger: logger,
		},
		PollInterval: cfg.PollInterval,
		FetchTimeout: constants.FetchTimeout,
		Logger:       logger,
	})

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"dexs":     core.Dexs.Names(),
		"interval": cfg.PollInterval,
	}).Info("indexer running")

	if err := poller.Start(ctx, indexer.ProcessPools); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("poller stopped")
	}
}
