package dex

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/api"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/provider"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MuesliSwapIdentifier is the registry name of the MuesliSwap adapter
const MuesliSwapIdentifier = "MuesliSwap"

const defaultConcurrency = 8

// Options configures an adapter
type Options struct {
	API             api.PoolAPI
	Logger          *logrus.Logger
	Concurrency     int
	NewDatumBuilder func() DatumBuilder
}

// MuesliSwap is the adapter for the MuesliSwap constant-product pools
type MuesliSwap struct {
	constantProduct

	cfg          ProtocolConfig
	factoryAsset models.Asset
	api          api.PoolAPI
	newBuilder   func() DatumBuilder
	concurrency  int
	logger       *logrus.Logger
}

// NewMuesliSwap creates the adapter from its protocol record
func NewMuesliSwap(cfg ProtocolConfig, opts Options) (*MuesliSwap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factory, err := cfg.FactoryAsset()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.NewDatumBuilder == nil {
		opts.NewDatumBuilder = NewDatumBuilder
	}

	return &MuesliSwap{
		cfg:          cfg,
		factoryAsset: factory,
		api:          opts.API,
		newBuilder:   opts.NewDatumBuilder,
		concurrency:  opts.Concurrency,
		logger:       opts.Logger,
	}, nil
}

func (m *MuesliSwap) Name() string {
	return m.cfg.Identifier
}

func (m *MuesliSwap) API() api.PoolAPI {
	return m.api
}

// Config returns the protocol record the adapter was built from
func (m *MuesliSwap) Config() ProtocolConfig {
	return m.cfg
}

// PoolAddresses returns the distinct addresses holding the factory token
func (m *MuesliSwap) PoolAddresses(ctx context.Context, p provider.DataProvider) ([]string, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no data provider", ErrNotFound)
	}

	holders, err := p.AssetAddresses(ctx, m.factoryAsset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch factory token holders: %w", err)
	}

	seen := make(map[string]struct{}, len(holders))
	addresses := make([]string, 0, len(holders))
	for _, h := range holders {
		if _, ok := seen[h.Address]; ok {
			continue
		}
		seen[h.Address] = struct{}{}
		addresses = append(addresses, h.Address)
	}
	return addresses, nil
}

// Pools scans every pool address and converts the outputs carrying the factory token
func (m *MuesliSwap) Pools(ctx context.Context, p provider.DataProvider) ([]*models.LiquidityPool, error) {
	addresses, err := m.PoolAddresses(ctx, p)
	if err != nil {
		return nil, err
	}

	perAddress := make([][]*models.LiquidityPool, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, address := range addresses {
		g.Go(func() error {
			utxos, err := p.UTxOs(gctx, address, &m.factoryAsset)
			if err != nil {
				return fmt.Errorf("failed to fetch utxos for %s: %w", address, err)
			}
			perAddress[i] = m.poolsFromUTxOs(gctx, p, utxos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pools []*models.LiquidityPool
	for _, batch := range perAddress {
		pools = append(pools, batch...)
	}

	m.logger.WithFields(logrus.Fields{
		"dex":       m.Name(),
		"addresses": len(addresses),
		"pools":     len(pools),
	}).Debug("ledger scan complete")
	return pools, nil
}

// poolsFromUTxOs converts outputs concurrently, keeping input order and dropping non-pools
func (m *MuesliSwap) poolsFromUTxOs(ctx context.Context, p provider.DataProvider, utxos []models.UTxO) []*models.LiquidityPool {
	results := make([]*models.LiquidityPool, len(utxos))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, utxo := range utxos {
		g.Go(func() error {
			if pool, ok := m.PoolFromUTxO(ctx, p, utxo); ok {
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

func (m *MuesliSwap) PoolFromUTxO(ctx context.Context, p provider.DataProvider, utxo models.UTxO) (*models.LiquidityPool, bool) {
	if !utxo.HasDatum() || p == nil {
		return nil, false
	}

	factoryPolicy := m.cfg.FactoryPolicyID()
	relevant := make([]models.AssetBalance, 0, len(utxo.AssetBalances))
	for _, b := range utxo.AssetBalances {
		if a, ok := b.Token.Asset(); ok {
			if strings.HasPrefix(a.ID(""), factoryPolicy) || m.cfg.IsPoolNFTPolicy(a.PolicyID) {
				continue
			}
		}
		relevant = append(relevant, b)
	}
	if len(relevant) < 2 {
		return nil, false
	}

	log := m.logger.WithFields(logrus.Fields{
		"dex":     m.Name(),
		"tx_hash": utxo.TxHash,
		"index":   utxo.OutputIndex,
	})

	value, err := p.DatumValue(ctx, utxo.DatumHash)
	if err != nil {
		log.WithError(err).Debug("pool datum unavailable")
		return nil, false
	}

	builder := m.newBuilder()
	builder.Load(muesliPoolDatum())
	params, err := builder.Parse(value)
	if err != nil {
		log.WithError(err).Debug("output datum is not a pool datum")
		return nil, false
	}

	tokenA := tokenFromParams(params, models.PoolAssetAPolicyID, models.PoolAssetAAssetName)
	tokenB := tokenFromParams(params, models.PoolAssetBPolicyID, models.PoolAssetBAssetName)

	pool, err := models.NewLiquidityPool(
		m.Name(),
		tokenA,
		tokenB,
		reserveOf(relevant, tokenA),
		reserveOf(relevant, tokenB),
		utxo.Address,
		m.cfg.OrderAddress,
		m.cfg.OrderAddress,
	)
	if err != nil {
		log.WithError(err).Debug("invalid pool datum")
		return nil, false
	}

	for _, b := range utxo.AssetBalances {
		nft, ok := b.Token.Asset()
		if !ok || !m.cfg.IsPoolNFTPolicy(nft.PolicyID) {
			continue
		}
		pool.SetLPToken(models.NewAsset(m.cfg.LPTokenPolicyID, nft.NameHex, 0))
		break
	}

	if total, ok := params.Int(models.TotalLpTokens); ok && total.Sign() >= 0 {
		pool.TotalLPTokens = total
	}
	if fee, ok := params.Int(models.LpFee); ok {
		f, _ := new(big.Float).SetInt(fee).Float64()
		if err := pool.SetFeePercent(f / 100); err != nil {
			log.WithError(err).Debug("ignoring pool fee")
		}
	}

	return pool, true
}

func (m *MuesliSwap) BuildSwapOrder(_ context.Context, pool *models.LiquidityPool, params models.DatumParameters, spend []models.SpendUTxO) ([]models.PayToAddress, error) {
	matchmaker, okMatchmaker := models.FindSwapFee(m.SwapOrderFees(), FeeMatchmaker)
	deposit, okDeposit := models.FindSwapFee(m.SwapOrderFees(), FeeDeposit)
	minReceive, okMinReceive := params.Int(models.MinReceive)
	if !okMatchmaker || !okDeposit || !okMinReceive {
		return nil, fmt.Errorf("%w: parameters for datum are not set", ErrConfiguration)
	}

	totalFees := new(big.Int).Add(matchmaker.Value, deposit.Value)

	params = params.Clone()
	params[models.TotalFees] = new(big.Int).Set(totalFees)
	params[models.AllowPartialFill] = big.NewInt(1)

	// ADA proceeds pay the matchmaker at settlement
	if policy, _ := params.String(models.SwapOutTokenPolicyID); policy == "" {
		params[models.MinReceive] = new(big.Int).Sub(minReceive, matchmaker.Value)
	}

	builder := m.newBuilder()
	builder.Load(muesliOrderDatum())
	if err := builder.Build(params); err != nil {
		return nil, fmt.Errorf("%w: failed to build order datum: %w", ErrConfiguration, err)
	}
	cbor, err := builder.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize order datum: %w", err)
	}

	lovelace := new(big.Int).Set(totalFees)
	balances := []models.AssetBalance{}
	if in, ok := swapInBalance(params); ok {
		if in.Token.IsLovelace() {
			lovelace.Add(lovelace, in.Quantity)
		} else {
			balances = append(balances, in)
		}
	}
	balances = append([]models.AssetBalance{models.NewAssetBalance(models.LovelaceToken(), lovelace)}, balances...)

	m.logger.WithFields(logrus.Fields{
		"dex":  m.Name(),
		"pool": pool.Identifier,
	}).Debug("built swap order")

	return []models.PayToAddress{{
		Address:       m.cfg.OrderAddress,
		AddressType:   models.AddressTypeContract,
		AssetBalances: balances,
		Datum:         hex.EncodeToString(cbor),
		IsInlineDatum: false,
		SpendUTxOs:    spend,
	}}, nil
}

func (m *MuesliSwap) BuildCancelSwapOrder(_ context.Context, txOutputs []models.UTxO, refundAddress string) ([]models.PayToAddress, error) {
	var order *models.UTxO
	for i := range txOutputs {
		if txOutputs[i].Address == m.cfg.OrderAddress {
			order = &txOutputs[i]
			break
		}
	}
	if order == nil {
		return nil, fmt.Errorf("%w: no output at the %s order address", ErrNotFound, m.Name())
	}

	balances := make([]models.AssetBalance, 0, len(order.AssetBalances))
	for _, b := range order.AssetBalances {
		balances = append(balances, models.NewAssetBalance(b.Token, b.Quantity))
	}
	validator := m.cfg.OrderScript

	return []models.PayToAddress{{
		Address:       refundAddress,
		AddressType:   models.AddressTypeBase,
		AssetBalances: balances,
		IsInlineDatum: false,
		SpendUTxOs: []models.SpendUTxO{{
			UTxO:      *order,
			Redeemer:  m.cfg.CancelRedeemer,
			Validator: &validator,
			Signer:    refundAddress,
		}},
	}}, nil
}

// SwapOrderFees returns a copy of the static fee schedule
func (m *MuesliSwap) SwapOrderFees() []models.SwapFee {
	fees := make([]models.SwapFee, 0, len(m.cfg.SwapFees))
	for _, f := range m.cfg.SwapFees {
		f.Value = new(big.Int).Set(f.Value)
		fees = append(fees, f)
	}
	return fees
}

func tokenFromParams(params models.DatumParameters, policyKey, nameKey models.DatumParameterKey) models.Token {
	policy, _ := params.String(policyKey)
	if policy == "" {
		return models.LovelaceToken()
	}
	name, _ := params.String(nameKey)
	return models.AssetToken(models.NewAsset(policy, name, 0))
}

func reserveOf(balances []models.AssetBalance, t models.Token) *big.Int {
	for _, b := range balances {
		if models.TokensMatch(b.Token, t) {
			return b.Quantity
		}
	}
	return new(big.Int)
}
