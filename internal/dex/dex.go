package dex

import (
	"context"
	"math/big"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/amm"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/api"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/datum"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/provider"
)

// Dex is a protocol adapter: pool discovery, pricing and order construction
type Dex interface {
	Name() string
	// API returns the protocol REST client, or nil when none is configured
	API() api.PoolAPI

	PoolAddresses(ctx context.Context, p provider.DataProvider) ([]string, error)
	Pools(ctx context.Context, p provider.DataProvider) ([]*models.LiquidityPool, error)
	// PoolFromUTxO returns false for any output that is not a readable pool of this protocol
	PoolFromUTxO(ctx context.Context, p provider.DataProvider, utxo models.UTxO) (*models.LiquidityPool, bool)

	EstimatedGive(pool *models.LiquidityPool, swapOutToken models.Token, swapOutAmount *big.Int) (*big.Int, error)
	EstimatedReceive(pool *models.LiquidityPool, swapInToken models.Token, swapInAmount *big.Int) (*big.Int, error)
	PriceImpactPercent(pool *models.LiquidityPool, swapInToken models.Token, swapInAmount *big.Int) (float64, error)

	BuildSwapOrder(ctx context.Context, pool *models.LiquidityPool, params models.DatumParameters, spend []models.SpendUTxO) ([]models.PayToAddress, error)
	BuildCancelSwapOrder(ctx context.Context, txOutputs []models.UTxO, refundAddress string) ([]models.PayToAddress, error)
	SwapOrderFees() []models.SwapFee
}

// DatumBuilder binds datum parameters to a template
type DatumBuilder interface {
	Load(template datum.Field)
	Parse(value datum.Field) (models.DatumParameters, error)
	Build(params models.DatumParameters) error
	Serialize() ([]byte, error)
}

// NewDatumBuilder returns the default Plutus data builder
func NewDatumBuilder() DatumBuilder {
	return datum.NewBuilder()
}

// constantProduct implements the pricing methods shared by constant-product adapters
type constantProduct struct{}

func (constantProduct) EstimatedGive(pool *models.LiquidityPool, swapOutToken models.Token, swapOutAmount *big.Int) (*big.Int, error) {
	reserveOut, reserveIn, err := pool.CorrespondingReserves(swapOutToken)
	if err != nil {
		return nil, err
	}
	return amm.EstimatedGive(reserveIn, reserveOut, swapOutAmount, pool.PoolFeePercent)
}

func (constantProduct) EstimatedReceive(pool *models.LiquidityPool, swapInToken models.Token, swapInAmount *big.Int) (*big.Int, error) {
	reserveIn, reserveOut, err := pool.CorrespondingReserves(swapInToken)
	if err != nil {
		return nil, err
	}
	return amm.EstimatedReceive(reserveIn, reserveOut, swapInAmount, pool.PoolFeePercent)
}

func (constantProduct) PriceImpactPercent(pool *models.LiquidityPool, swapInToken models.Token, swapInAmount *big.Int) (float64, error) {
	reserveIn, reserveOut, err := pool.CorrespondingReserves(swapInToken)
	if err != nil {
		return 0, err
	}
	return amm.PriceImpactPercent(reserveIn, reserveOut, swapInAmount, pool.PoolFeePercent)
}

// swapInBalance returns the asset locked in an order for the swap-in side of params
func swapInBalance(params models.DatumParameters) (models.AssetBalance, bool) {
	amount, ok := params.Int(models.SwapInAmount)
	if !ok || amount.Sign() <= 0 {
		return models.AssetBalance{}, false
	}
	policy, _ := params.String(models.SwapInTokenPolicyID)
	if policy == "" {
		return models.NewAssetBalance(models.LovelaceToken(), amount), true
	}
	name, _ := params.String(models.SwapInTokenAssetName)
	return models.NewAssetBalance(models.AssetToken(models.NewAsset(policy, name, 0)), amount), true
}
