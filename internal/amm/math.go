package amm

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidReserves     = errors.New("reserves must be > 0")
	ErrInvalidAmount       = errors.New("amount must be >= 0")
	ErrInvalidFee          = errors.New("fee percent must be in [0, 100)")
	ErrInsufficientReserve = errors.New("requested amount exceeds pool reserve")
	ErrZeroOutput          = errors.New("swap produces no output")
)

var (
	bpsDenominator = big.NewInt(10000)
	bpsRoundUp     = big.NewInt(9999)
	hundred        = decimal.NewFromInt(100)
)

// FeeBasisPoints converts a two-decimal fee percentage to basis points, e.g. 0.3 -> 30
func FeeBasisPoints(feePercent float64) int64 {
	return int64(math.Round(feePercent * 100))
}

// EstimatedReceive computes the constant-product output for amountIn.
// The fee is deducted from the input (rounded up) before the invariant is applied,
// and the result is floored.
func EstimatedReceive(reserveIn, reserveOut, amountIn *big.Int, feePercent float64) (*big.Int, error) {
	if err := validate(reserveIn, reserveOut, amountIn, feePercent); err != nil {
		return nil, err
	}

	// fee = ceil(amountIn * bps / 10000)
	fee := new(big.Int).Mul(amountIn, big.NewInt(FeeBasisPoints(feePercent)))
	fee.Add(fee, bpsRoundUp)
	fee.Div(fee, bpsDenominator)

	adjustedIn := new(big.Int).Sub(amountIn, fee)

	// floor(rOut - rIn*rOut/(rIn+adj)) == rOut - ceil(rIn*rOut/(rIn+adj))
	k := new(big.Int).Mul(reserveIn, reserveOut)
	denominator := new(big.Int).Add(reserveIn, adjustedIn)
	remaining := ceilDiv(k, denominator)

	out := new(big.Int).Sub(reserveOut, remaining)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out, nil
}

// EstimatedGive computes the input needed to receive amountOut.
// The inverse is taken on the raw invariant and then grossed up by (1 + fee/100),
// so it is not an exact inverse of EstimatedReceive.
func EstimatedGive(reserveIn, reserveOut, amountOut *big.Int, feePercent float64) (*big.Int, error) {
	if err := validate(reserveIn, reserveOut, amountOut, feePercent); err != nil {
		return nil, err
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("%w: want %s, reserve %s", ErrInsufficientReserve, amountOut, reserveOut)
	}

	// raw = floor(rIn*rOut/(rOut-out)) - rIn
	k := new(big.Int).Mul(reserveIn, reserveOut)
	raw := new(big.Int).Div(k, new(big.Int).Sub(reserveOut, amountOut))
	raw.Sub(raw, reserveIn)

	// floor(raw * (10000 + bps) / 10000)
	give := new(big.Int).Mul(raw, big.NewInt(10000+FeeBasisPoints(feePercent)))
	give.Div(give, bpsDenominator)
	return give, nil
}

// PriceImpactPercent compares the effective price of a swap against the spot price
func PriceImpactPercent(reserveIn, reserveOut, amountIn *big.Int, feePercent float64) (float64, error) {
	received, err := EstimatedReceive(reserveIn, reserveOut, amountIn, feePercent)
	if err != nil {
		return 0, err
	}
	if received.Sign() == 0 {
		return 0, ErrZeroOutput
	}

	spot := decimal.NewFromBigInt(reserveIn, 0).Div(decimal.NewFromBigInt(reserveOut, 0))
	effective := decimal.NewFromBigInt(amountIn, 0).Div(decimal.NewFromBigInt(received, 0))

	return effective.Sub(spot).Div(spot).Mul(hundred).InexactFloat64(), nil
}

// ApplySlippage returns the minimum acceptable output for a slippage tolerance in basis points
func ApplySlippage(amountOut *big.Int, slippageBps uint16) *big.Int {
	if slippageBps >= 10000 {
		return new(big.Int)
	}

	out := new(big.Int).Mul(amountOut, big.NewInt(int64(10000-slippageBps)))
	return out.Div(out, bpsDenominator)
}

// ToDecimal shifts a minimal-unit amount by the token decimals for display
func ToDecimal(amount *big.Int, decimals int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, int32(-decimals))
}

func validate(reserveIn, reserveOut, amount *big.Int, feePercent float64) error {
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return ErrInvalidReserves
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if feePercent < 0 || feePercent >= 100 || math.IsNaN(feePercent) {
		return fmt.Errorf("%w: %v", ErrInvalidFee, feePercent)
	}
	return nil
}

func ceilDiv(x, y *big.Int) *big.Int {
	q, m := new(big.Int).QuoRem(x, y, new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
