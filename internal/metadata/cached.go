package metadata

import (
	"context"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/sirupsen/logrus"
)

// Cached serves decimals from a Store and only asks the next Service for misses.
// Store failures degrade to uncached lookups.
type Cached struct {
	next   Service
	store  Store
	logger *logrus.Logger
}

// NewCached wraps next with store
func NewCached(next Service, store Store, logger *logrus.Logger) *Cached {
	if logger == nil {
		logger = logrus.New()
	}
	return &Cached{next: next, store: store, logger: logger}
}

func (c *Cached) FetchDecimals(ctx context.Context, assets []models.Asset) ([]models.AssetMetadata, error) {
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID(""))
	}

	hits, err := c.store.GetDecimals(ctx, ids)
	if err != nil {
		c.logger.WithError(err).Warn("metadata cache read failed")
		hits = map[string]int{}
	}

	var misses []models.Asset
	for _, a := range assets {
		if _, ok := hits[a.ID("")]; !ok {
			misses = append(misses, a)
		}
	}

	if len(misses) > 0 {
		fetched, err := c.next.FetchDecimals(ctx, misses)
		if err != nil {
			return nil, err
		}

		fresh := make(map[string]int, len(fetched))
		for _, m := range fetched {
			id := models.NewAsset(m.PolicyID, m.NameHex, 0).ID("")
			fresh[id] = m.Decimals
			hits[id] = m.Decimals
		}
		if err := c.store.SetDecimals(ctx, fresh); err != nil {
			c.logger.WithError(err).Warn("metadata cache write failed")
		}
	}

	out := make([]models.AssetMetadata, 0, len(assets))
	for _, a := range assets {
		out = append(out, models.AssetMetadata{
			PolicyID: a.PolicyID,
			NameHex:  a.NameHex,
			Decimals: hits[a.ID("")],
		})
	}
	return out, nil
}
