package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/fetch"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/storage"
	"github.com/sirupsen/logrus"
)

// PoolFetcher is the part of fetch.Request the poller needs
type PoolFetcher interface {
	GetLiquidityPools(ctx context.Context, filter fetch.PairFilter) ([]*models.LiquidityPool, error)
}

// PoolPoller periodically fetches pools and hands each batch to a handler
type PoolPoller struct {
	fetcher      PoolFetcher
	filter       fetch.PairFilter
	pollInterval time.Duration
	fetchTimeout time.Duration
	logger       *logrus.Logger

	mu       sync.RWMutex
	running  bool
	lastPoll time.Time
	cancel   context.CancelFunc
}

// PoolPollerConfig holds configuration for the pool poller
type PoolPollerConfig struct {
	Fetcher      PoolFetcher
	Filter       fetch.PairFilter
	PollInterval time.Duration
	FetchTimeout time.Duration
	Logger       *logrus.Logger
}

// NewPoolPoller creates a new pool poller
func NewPoolPoller(cfg PoolPollerConfig) *PoolPoller {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = cfg.PollInterval
	}

	return &PoolPoller{
		fetcher:      cfg.Fetcher,
		filter:       cfg.Filter,
		pollInterval: cfg.PollInterval,
		fetchTimeout: cfg.FetchTimeout,
		logger:       cfg.Logger,
	}
}

// Start polls immediately and then on every tick until ctx is done or Stop is called
func (p *PoolPoller) Start(ctx context.Context, handler storage.PoolHandler) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
		cancel()
	}()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.WithField("interval", p.pollInterval).Info("starting pool polling")

	p.PollOnce(ctx, handler)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.PollOnce(ctx, handler)
		}
	}
}

// Stop stops a running poller
func (p *PoolPoller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// LastPoll returns the time of the last successful poll
func (p *PoolPoller) LastPoll() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPoll
}

// PollOnce runs a single fetch and passes a non-empty result to handler
func (p *PoolPoller) PollOnce(ctx context.Context, handler storage.PoolHandler) {
	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	start := time.Now()
	pools, err := p.fetcher.GetLiquidityPools(ctx, p.filter)
	if err != nil {
		p.logger.WithError(err).Error("poll error")
		return
	}

	p.mu.Lock()
	p.lastPoll = time.Now()
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"pools":    len(pools),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("polled pools")

	if len(pools) > 0 {
		handler(ctx, pools)
	}
}
