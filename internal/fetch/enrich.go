package fetch

import (
	"context"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// enrich attaches decimals to every pool asset; lookup failures leave decimals at 0
func (r *Request) enrich(ctx context.Context, pools []*models.LiquidityPool) {
	seen := map[string]struct{}{}
	var assets []models.Asset
	for _, pool := range pools {
		for _, t := range []models.Token{pool.AssetA, pool.AssetB} {
			a, ok := t.Asset()
			if !ok {
				continue
			}
			if _, dup := seen[a.ID("")]; dup {
				continue
			}
			seen[a.ID("")] = struct{}{}
			assets = append(assets, a)
		}
	}
	if len(assets) == 0 {
		return
	}

	found, err := r.opts.Metadata.FetchDecimals(ctx, assets)
	if err != nil {
		r.logger.WithError(err).WithField("assets", len(assets)).Warn("asset metadata lookup failed")
		return
	}

	decimals := make(map[string]int, len(found))
	for _, m := range found {
		decimals[models.NewAsset(m.PolicyID, m.NameHex, 0).ID("")] = m.Decimals
	}

	for _, pool := range pools {
		pool.AssetA = withDecimals(pool.AssetA, decimals)
		pool.AssetB = withDecimals(pool.AssetB, decimals)
	}
}

func withDecimals(t models.Token, decimals map[string]int) models.Token {
	a, ok := t.Asset()
	if !ok {
		return t
	}
	d, ok := decimals[a.ID("")]
	if !ok {
		return t
	}
	return t.WithDecimals(d)
}
