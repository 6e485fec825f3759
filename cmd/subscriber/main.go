// Example consumer of the pool snapshots published by the indexer
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/cache"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/constants"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rclient := redis.NewClient(&redis.Options{Addr: addr})
	defer rclient.Close()

	pubsub := cache.NewPubSubManager(rclient, logger)

	logger.Info("starting pool subscriber")

	// Every pool
	go func() {
		_ = pubsub.Subscribe(ctx, constants.PubSubChannelPools, func(pool *models.LiquidityPool) {
			logger.WithFields(logrus.Fields{
				"dex":       pool.Dex,
				"pair":      pool.Pair(),
				"reserve_a": pool.ReserveA,
				"reserve_b": pool.ReserveB,
			}).Info("pool update")
		})
	}()

	// One pair
	pair := os.Getenv("SUBSCRIBE_PAIR")
	if pair == "" {
		pair = "ADA/MILK"
	}
	go func() {
		_ = pubsub.Subscribe(ctx, cache.PairChannel(pair), func(pool *models.LiquidityPool) {
			logger.WithField("uuid", pool.UUID()).Infof("%s reserves %s / %s", pair, pool.ReserveA, pool.ReserveB)
		})
	}()

	// Pattern over every dex channel
	go func() {
		_ = pubsub.PSubscribe(ctx, constants.PubSubChannelDexPrefix+"*", func(pool *models.LiquidityPool) {
			logger.WithField("dex", pool.Dex).Debug("pattern match")
		})
	}()

	logger.Info("subscriber running, press Ctrl+C to stop")

	<-sigCh
	logger.Info("shutting down subscriber")
}
