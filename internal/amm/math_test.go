package amm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	reserveADA  = big.NewInt(1_000_000_000)
	reserveMILK = big.NewInt(500_000_000)
)

func TestFeeBasisPoints(t *testing.T) {
	assert.Equal(t, int64(30), FeeBasisPoints(0.3))
	assert.Equal(t, int64(35), FeeBasisPoints(0.35))
	assert.Equal(t, int64(0), FeeBasisPoints(0))
	// 0.29 * 100 is 28.999999999999996 in float64
	assert.Equal(t, int64(29), FeeBasisPoints(0.29))
}

func TestEstimatedReceive_ConcreteCase(t *testing.T) {
	// fee = ceil(10_000_000*30/10000) = 30_000, adjusted in = 9_970_000
	// floor(500_000_000 - 1e9*5e8/1_009_970_000) = floor(4_935_790.17) = 4_935_790
	out, err := EstimatedReceive(reserveADA, reserveMILK, big.NewInt(10_000_000), 0.3)
	require.NoError(t, err)
	assert.Equal(t, "4935790", out.String())
}

func TestEstimatedReceive_Bounds(t *testing.T) {
	amounts := []int64{1, 1_000, 1_000_000, 10_000_000, 100_000_000, 999_999_999}

	prev := big.NewInt(-1)
	for _, a := range amounts {
		out, err := EstimatedReceive(reserveADA, reserveMILK, big.NewInt(a), 0.3)
		require.NoError(t, err)
		assert.True(t, out.Sign() >= 0, "amount %d", a)
		assert.True(t, out.Cmp(reserveMILK) < 0, "amount %d", a)
		if a >= 1_000 {
			assert.True(t, out.Cmp(prev) > 0, "amount %d should receive more than the previous amount", a)
		}
		prev = out
	}
}

func TestEstimatedReceive_ZeroAmount(t *testing.T) {
	out, err := EstimatedReceive(reserveADA, reserveMILK, big.NewInt(0), 0.3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Int64())
}

func TestEstimatedReceive_InvalidInputs(t *testing.T) {
	_, err := EstimatedReceive(big.NewInt(0), reserveMILK, big.NewInt(1), 0.3)
	assert.ErrorIs(t, err, ErrInvalidReserves)

	_, err = EstimatedReceive(reserveADA, reserveMILK, big.NewInt(-1), 0.3)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = EstimatedReceive(reserveADA, reserveMILK, big.NewInt(1), 100)
	assert.ErrorIs(t, err, ErrInvalidFee)
}

func TestEstimatedGive(t *testing.T) {
	// raw = floor(1e9*5e8/(5e8-4_935_790)) - 1e9 = 9_969_999
	// gross up: floor(9_969_999 * 10030 / 10000) = 9_999_908
	in, err := EstimatedGive(reserveADA, reserveMILK, big.NewInt(4_935_790), 0.3)
	require.NoError(t, err)
	assert.Equal(t, "9999908", in.String())

	// not an exact inverse of EstimatedReceive
	assert.NotEqual(t, "10000000", in.String())
}

func TestEstimatedGive_ExceedsReserve(t *testing.T) {
	_, err := EstimatedGive(reserveADA, reserveMILK, reserveMILK, 0.3)
	assert.ErrorIs(t, err, ErrInsufficientReserve)
}

func TestPriceImpactPercent(t *testing.T) {
	small, err := PriceImpactPercent(reserveADA, reserveMILK, big.NewInt(1_000_000), 0.3)
	require.NoError(t, err)
	mid, err := PriceImpactPercent(reserveADA, reserveMILK, big.NewInt(10_000_000), 0.3)
	require.NoError(t, err)
	large, err := PriceImpactPercent(reserveADA, reserveMILK, big.NewInt(100_000_000), 0.3)
	require.NoError(t, err)

	assert.InDelta(t, 1.3009, mid, 0.0001)
	assert.Less(t, small, mid)
	assert.Less(t, mid, large)
}

func TestPriceImpactPercent_TendsToZero(t *testing.T) {
	impact, err := PriceImpactPercent(reserveADA, reserveMILK, big.NewInt(1_000_000), 0)
	require.NoError(t, err)
	assert.Greater(t, impact, 0.0)
	assert.Less(t, impact, 0.2)
}

func TestPriceImpactPercent_ZeroOutput(t *testing.T) {
	_, err := PriceImpactPercent(reserveADA, reserveMILK, big.NewInt(1), 0.3)
	assert.ErrorIs(t, err, ErrZeroOutput)
}

func TestApplySlippage(t *testing.T) {
	assert.Equal(t, int64(990), ApplySlippage(big.NewInt(1000), 100).Int64())
	assert.Equal(t, int64(0), ApplySlippage(big.NewInt(1000), 10000).Int64())
}

func TestToDecimal(t *testing.T) {
	assert.Equal(t, "2.5", ToDecimal(big.NewInt(2_500_000), 6).String())
	assert.Equal(t, "0", ToDecimal(nil, 6).String())
}
