package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/constants"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PubSubManager publishes pool snapshots over Redis Pub/Sub
type PubSubManager struct {
	client redis.UniversalClient
	logger *logrus.Logger
}

func NewPubSubManager(client redis.UniversalClient, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// DexChannel is the channel carrying pools of one dex
func DexChannel(dex string) string {
	return constants.PubSubChannelDexPrefix + dex
}

// PairChannel is the channel carrying pools of one pair, e.g. "pools:pair:ADA/MILK"
func PairChannel(pair string) string {
	return constants.PubSubChannelPairPrefix + pair
}

// PublishPools publishes every pool to the global, dex and pair channels
func (p *PubSubManager) PublishPools(ctx context.Context, pools []*models.LiquidityPool) error {
	if len(pools) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, pool := range pools {
		data, err := json.Marshal(pool)
		if err != nil {
			return fmt.Errorf("marshal pool: %w", err)
		}
		for _, channel := range []string{
			constants.PubSubChannelPools,
			DexChannel(pool.Dex),
			PairChannel(pool.Pair()),
		} {
			pipe.Publish(ctx, channel, data)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Subscribe blocks delivering pools from channel until ctx is done
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler func(*models.LiquidityPool)) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	p.logger.WithField("channel", channel).Info("subscribed")
	return p.consume(ctx, pubsub, handler)
}

// PSubscribe is Subscribe for a pattern such as "pools:dex:*"
func (p *PubSubManager) PSubscribe(ctx context.Context, pattern string, handler func(*models.LiquidityPool)) error {
	pubsub := p.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	p.logger.WithField("pattern", pattern).Info("subscribed")
	return p.consume(ctx, pubsub, handler)
}

func (p *PubSubManager) consume(ctx context.Context, pubsub *redis.PubSub, handler func(*models.LiquidityPool)) error {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var pool models.LiquidityPool
			if err := json.Unmarshal([]byte(msg.Payload), &pool); err != nil {
				p.logger.WithError(err).WithField("channel", msg.Channel).Warn("failed to unmarshal pool")
				continue
			}
			handler(&pool)
		}
	}
}
