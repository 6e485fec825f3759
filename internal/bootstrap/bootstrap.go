// Package bootstrap wires configuration into the fetch stack shared by the binaries.
package bootstrap

import (
	"fmt"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/api"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/cache"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/config"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/fetch"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/metadata"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/provider"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Core holds the adapters and fetch settings built from configuration
type Core struct {
	Protocols    dex.Protocols
	Dexs         dex.Registry
	Provider     provider.DataProvider // nil when no Blockfrost project is configured
	FetchOptions fetch.Options
}

// NewCore builds the provider, the adapter registry and the metadata service.
// A non-nil redisClient puts the decimals cache in front of the token registry.
func NewCore(cfg *config.Config, redisClient redis.UniversalClient, logger *logrus.Logger) (*Core, error) {
	if logger == nil {
		logger = logrus.New()
	}

	protocols, err := loadProtocols(cfg)
	if err != nil {
		return nil, err
	}

	var ledger provider.DataProvider
	if cfg.HasLedgerProvider() {
		ledger = provider.NewBlockfrost(provider.BlockfrostConfig{
			BaseURL:           cfg.BlockfrostURL,
			ProjectID:         cfg.BlockfrostProjectID,
			Timeout:           cfg.HTTPTimeout,
			MaxRetries:        cfg.MaxRetries,
			RetryBackoff:      cfg.RetryBackoff,
			RequestsPerSecond: float64(cfg.BlockfrostRPS),
			Logger:            logger,
		})
	} else {
		logger.Warn("BLOCKFROST_PROJECT_ID not set, pools come from protocol APIs only")
	}

	dexs, err := dex.BuildRegistry(protocols, func(pc dex.ProtocolConfig) dex.Options {
		return dex.Options{
			API:         poolAPI(cfg, pc, logger),
			Logger:      logger,
			Concurrency: cfg.FetchConcurrency,
		}
	}, logger)
	if err != nil {
		return nil, err
	}

	var meta metadata.Service
	if cfg.FetchMetadata {
		meta = metadata.NewTokenRegistry(cfg.TokenRegistryURL, logger)
		if redisClient != nil {
			store, err := cache.NewRedisCache(redisClient, cfg.MetadataCacheTTL)
			if err != nil {
				return nil, err
			}
			meta = metadata.NewCached(meta, store, logger)
		}
	}

	logger.WithFields(logrus.Fields{
		"dexs":     dexs.Names(),
		"ledger":   ledger != nil,
		"metadata": meta != nil,
	}).Info("fetch stack ready")

	return &Core{
		Protocols: protocols,
		Dexs:      dexs,
		Provider:  ledger,
		FetchOptions: fetch.Options{
			Provider:            ledger,
			Metadata:            meta,
			AllowAPIFallback:    cfg.AllowAPIFallback,
			ShouldFetchMetadata: cfg.FetchMetadata,
			Concurrency:         cfg.FetchConcurrency,
			Logger:              logger,
		},
	}, nil
}

// NewRequest returns a fetch request over every adapter
func (c *Core) NewRequest() *fetch.Request {
	return fetch.NewRequest(c.Dexs, c.FetchOptions).ForAllDexs()
}

func loadProtocols(cfg *config.Config) (dex.Protocols, error) {
	protocols, err := dex.LoadProtocols(cfg.ProtocolsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.ProtocolsFile, err)
	}
	return protocols, nil
}

// poolAPI returns the REST client for a protocol, or nil when it has none
func poolAPI(cfg *config.Config, pc dex.ProtocolConfig, logger *logrus.Logger) api.PoolAPI {
	switch pc.Identifier {
	case dex.MuesliSwapIdentifier:
		return api.NewMuesliSwap(api.MuesliSwapConfig{
			BaseURL:      cfg.MuesliSwapAPIURL,
			Dex:          pc.Identifier,
			OrderAddress: pc.OrderAddress,
			Timeout:      cfg.HTTPTimeout,
			Logger:       logger,
		})
	default:
		return nil
	}
}
