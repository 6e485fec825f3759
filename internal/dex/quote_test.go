package dex

import (
	"math/big"
	"testing"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteSwap(t *testing.T) {
	m, _ := newTestMuesliSwap(t)
	pool, err := models.NewLiquidityPool(MuesliSwapIdentifier, models.LovelaceToken(), milk(),
		big.NewInt(1_000_000_000), big.NewInt(500_000_000), poolAddr, "", "")
	require.NoError(t, err)
	require.NoError(t, pool.SetFeePercent(0.3))

	in, err := QuoteSwap(m, pool, models.LovelaceToken(), big.NewInt(10_000_000), false, 100)
	require.NoError(t, err)
	assert.True(t, models.TokensMatch(milk(), in.SwapOutToken))
	assert.Equal(t, "4935790", in.SwapOutAmount.String())
	assert.Equal(t, "4886432", in.MinReceive.String())
	assert.InDelta(t, 1.3009, in.PriceImpactPercent, 0.001)

	out, err := QuoteSwap(m, pool, milk(), big.NewInt(4_935_790), true, 0)
	require.NoError(t, err)
	assert.True(t, out.SwapInToken.IsLovelace())
	assert.Equal(t, "9999908", out.SwapInAmount.String())
	assert.Equal(t, "4935790", out.MinReceive.String())

	_, err = QuoteSwap(m, pool, milk(), big.NewInt(0), false, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	stranger := models.AssetToken(models.NewAsset(m.cfg.LPTokenPolicyID, "", 0))
	_, err = QuoteSwap(m, pool, stranger, big.NewInt(1), false, 0)
	assert.ErrorIs(t, err, models.ErrTokenNotInPool)
}
