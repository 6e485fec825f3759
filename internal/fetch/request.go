package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/metadata"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/provider"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownDex = fmt.Errorf("%w: dex is not available", dex.ErrConfiguration)
	ErrAmbiguous  = errors.New("more than one pool matches the pool identity")
)

const defaultConcurrency = 8

// Options configures a Request
type Options struct {
	// Provider is the ledger data source; nil means API-only
	Provider provider.DataProvider
	// Metadata resolves asset decimals when ShouldFetchMetadata is set
	Metadata            metadata.Service
	AllowAPIFallback    bool
	ShouldFetchMetadata bool
	Concurrency         int
	Logger              *logrus.Logger
}

// PairFilter restricts pools to a token pair. A alone keeps pools containing A
// (lovelace alone keeps everything); A and B keep the exact pair in either order.
type PairFilter struct {
	A models.Token
	B *models.Token
}

// Request fetches pools across a selection of adapters.
// It is not safe for concurrent selection changes.
type Request struct {
	available dex.Registry
	onDexs    []dex.Dex
	opts      Options
	logger    *logrus.Logger
}

// NewRequest creates a request over the available adapters with an empty selection
func NewRequest(available dex.Registry, opts Options) *Request {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Request{
		available: available,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// ForDexs adds adapters to the selection. A name already selected keeps its position.
// Unknown names fail with ErrUnknownDex and leave the selection unchanged.
func (r *Request) ForDexs(names ...string) (*Request, error) {
	for _, name := range names {
		if _, ok := r.available[name]; !ok {
			return r, fmt.Errorf("%w: %s", ErrUnknownDex, name)
		}
	}

	for _, name := range names {
		d := r.available[name]
		replaced := false
		for i, selected := range r.onDexs {
			if selected.Name() == name {
				r.onDexs[i] = d
				replaced = true
				break
			}
		}
		if !replaced {
			r.onDexs = append(r.onDexs, d)
		}
	}
	return r, nil
}

// ForAllDexs selects every available adapter
func (r *Request) ForAllDexs() *Request {
	r.onDexs = r.onDexs[:0]
	for _, name := range r.available.Names() {
		r.onDexs = append(r.onDexs, r.available[name])
	}
	return r
}

// Dexs returns the selected adapter names in selection order
func (r *Request) Dexs() []string {
	names := make([]string, 0, len(r.onDexs))
	for _, d := range r.onDexs {
		names = append(names, d.Name())
	}
	return names
}

// GetLiquidityPools fetches pools from every selected adapter and filters them by pair.
// A failing adapter contributes nothing; it never fails the call.
func (r *Request) GetLiquidityPools(ctx context.Context, filter PairFilter) ([]*models.LiquidityPool, error) {
	perDex := make([][]*models.LiquidityPool, len(r.onDexs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, d := range r.onDexs {
		g.Go(func() error {
			perDex[i] = r.dexPools(gctx, d, filter)
			return nil
		})
	}
	_ = g.Wait()

	var pools []*models.LiquidityPool
	for _, batch := range perDex {
		for _, pool := range batch {
			if filter.matches(pool) {
				pools = append(pools, pool)
			}
		}
	}

	if r.opts.ShouldFetchMetadata && r.opts.Metadata != nil {
		r.enrich(ctx, pools)
	}
	return pools, nil
}

// GetLiquidityPoolsByDex is GetLiquidityPools grouped by adapter name
func (r *Request) GetLiquidityPoolsByDex(ctx context.Context, filter PairFilter) (map[string][]*models.LiquidityPool, error) {
	pools, err := r.GetLiquidityPools(ctx, filter)
	if err != nil {
		return nil, err
	}

	groups := map[string][]*models.LiquidityPool{}
	for _, pool := range pools {
		groups[pool.Dex] = append(groups[pool.Dex], pool)
	}
	return groups, nil
}

// GetLiquidityPoolState re-reads the current state of pool.
// It returns nil when the pool no longer exists.
func (r *Request) GetLiquidityPoolState(ctx context.Context, pool *models.LiquidityPool) (*models.LiquidityPool, error) {
	d, ok := r.available[pool.Dex]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDex, pool.Dex)
	}

	var candidates []*models.LiquidityPool
	if r.opts.Provider != nil {
		var assetFilter *models.Asset
		if asset, ok := pool.FirstAsset(); ok {
			assetFilter = &asset
		}
		utxos, err := r.opts.Provider.UTxOs(ctx, pool.Address, assetFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch pool utxos: %w", err)
		}
		candidates = r.discover(ctx, d, utxos)
	} else {
		poolAPI := d.API()
		if poolAPI == nil {
			return nil, fmt.Errorf("%w: no data provider or api for %s", dex.ErrNotFound, d.Name())
		}
		assetB := pool.AssetB
		fetched, err := poolAPI.LiquidityPools(ctx, pool.AssetA, &assetB)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch pool from %s api: %w", d.Name(), err)
		}
		candidates = fetched
	}

	var match *models.LiquidityPool
	for _, candidate := range candidates {
		if candidate.UUID() != pool.UUID() {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, pool.UUID())
		}
		match = candidate
	}
	return match, nil
}

// GetLiquidityPoolHistory replays the transactions of the pool LP token and returns
// the pool state after each one. Transactions that no longer yield a pool are dropped.
func (r *Request) GetLiquidityPoolHistory(ctx context.Context, pool *models.LiquidityPool) ([]*models.LiquidityPool, error) {
	d, ok := r.available[pool.Dex]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDex, pool.Dex)
	}
	if r.opts.Provider == nil {
		return nil, fmt.Errorf("%w: history requires a data provider", dex.ErrNotFound)
	}
	if pool.LPToken == nil {
		return []*models.LiquidityPool{}, nil
	}

	transactions, err := r.opts.Provider.AssetTransactions(ctx, *pool.LPToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lp token transactions: %w", err)
	}

	states := make([]*models.LiquidityPool, len(transactions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, tx := range transactions {
		g.Go(func() error {
			outputs, err := r.opts.Provider.TransactionUTxOs(gctx, tx.Hash)
			if err != nil {
				r.logger.WithFields(logrus.Fields{
					"dex":     d.Name(),
					"tx_hash": tx.Hash,
				}).WithError(err).Debug("skipping history transaction")
				return nil
			}
			for _, out := range outputs {
				if out.Address != pool.Address {
					continue
				}
				if state, ok := d.PoolFromUTxO(gctx, r.opts.Provider, out); ok {
					states[i] = state
				}
				break
			}
			return nil
		})
	}
	_ = g.Wait()

	history := make([]*models.LiquidityPool, 0, len(states))
	for _, state := range states {
		if state != nil {
			history = append(history, state)
		}
	}
	return history, nil
}

// dexPools runs the ledger scan, then the API fallback when allowed
func (r *Request) dexPools(ctx context.Context, d dex.Dex, filter PairFilter) []*models.LiquidityPool {
	log := r.logger.WithField("dex", d.Name())

	if r.opts.Provider != nil {
		pools, err := d.Pools(ctx, r.opts.Provider)
		if err == nil {
			return pools
		}
		log.WithError(err).Warn("ledger scan failed")
	}

	if !r.opts.AllowAPIFallback {
		return nil
	}
	poolAPI := d.API()
	if poolAPI == nil {
		log.Debug("no api configured for fallback")
		return nil
	}

	pools, err := poolAPI.LiquidityPools(ctx, filter.A, filter.B)
	if err != nil {
		log.WithError(err).Warn("api fallback failed")
		return nil
	}
	return pools
}

// discover converts outputs to pools concurrently, keeping order and dropping non-pools
func (r *Request) discover(ctx context.Context, d dex.Dex, utxos []models.UTxO) []*models.LiquidityPool {
	results := make([]*models.LiquidityPool, len(utxos))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, utxo := range utxos {
		g.Go(func() error {
			if pool, ok := d.PoolFromUTxO(ctx, r.opts.Provider, utxo); ok {
				results[i] = pool
			}
			return nil
		})
	}
	_ = g.Wait()

	pools := make([]*models.LiquidityPool, 0, len(results))
	for _, pool := range results {
		if pool != nil {
			pools = append(pools, pool)
		}
	}
	return pools
}

func (f PairFilter) matches(pool *models.LiquidityPool) bool {
	if f.B != nil {
		return (models.TokensMatch(pool.AssetA, f.A) && models.TokensMatch(pool.AssetB, *f.B)) ||
			(models.TokensMatch(pool.AssetA, *f.B) && models.TokensMatch(pool.AssetB, f.A))
	}
	if f.A.IsLovelace() {
		return true
	}
	return pool.HasToken(f.A)
}
