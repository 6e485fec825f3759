package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrSameTokens      = errors.New("pool tokens must be distinct")
	ErrNegativeReserve = errors.New("pool reserves must be >= 0")
	ErrTokenNotInPool  = errors.New("token is not part of the pool")
	ErrInvalidPoolFee  = errors.New("pool fee percent must be in [0, 100)")
)

// LiquidityPool is a snapshot of a two-token AMM pool
type LiquidityPool struct {
	Dex            string   `json:"dex"`
	AssetA         Token    `json:"asset_a"`
	AssetB         Token    `json:"asset_b"`
	ReserveA       *big.Int `json:"reserve_a"`
	ReserveB       *big.Int `json:"reserve_b"`
	Address        string   `json:"address"`
	OrderAddress   string   `json:"order_address"`
	CancelAddress  string   `json:"cancel_address"`
	LPToken        *Asset   `json:"lp_token,omitempty"`
	TotalLPTokens  *big.Int `json:"total_lp_tokens"`
	PoolFeePercent float64  `json:"pool_fee_percent"`
	Identifier     string   `json:"identifier"`
}

// NewLiquidityPool validates the pair and reserves and derives the default identifier
func NewLiquidityPool(
	dex string,
	assetA, assetB Token,
	reserveA, reserveB *big.Int,
	address, orderAddress, cancelAddress string,
) (*LiquidityPool, error) {
	if TokensMatch(assetA, assetB) {
		return nil, ErrSameTokens
	}
	if reserveA == nil {
		reserveA = new(big.Int)
	}
	if reserveB == nil {
		reserveB = new(big.Int)
	}
	if reserveA.Sign() < 0 || reserveB.Sign() < 0 {
		return nil, ErrNegativeReserve
	}

	return &LiquidityPool{
		Dex:           dex,
		AssetA:        assetA,
		AssetB:        assetB,
		ReserveA:      new(big.Int).Set(reserveA),
		ReserveB:      new(big.Int).Set(reserveB),
		Address:       address,
		OrderAddress:  orderAddress,
		CancelAddress: cancelAddress,
		TotalLPTokens: new(big.Int),
		Identifier:    address + "." + assetA.ID("") + "." + assetB.ID(""),
	}, nil
}

// SetLPToken attaches the LP token and re-keys the pool identifier on it
func (p *LiquidityPool) SetLPToken(lp Asset) {
	p.LPToken = &lp
	p.Identifier = lp.ID("")
}

// SetFeePercent sets the pool fee, rejecting values outside [0, 100)
func (p *LiquidityPool) SetFeePercent(fee float64) error {
	if fee < 0 || fee >= 100 {
		return fmt.Errorf("%w: %v", ErrInvalidPoolFee, fee)
	}
	p.PoolFeePercent = fee
	return nil
}

// Pair returns a display pair like "ADA/MILK"
func (p *LiquidityPool) Pair() string {
	return p.AssetA.Ticker() + "/" + p.AssetB.Ticker()
}

// UUID is the stable identity of the pool; it does not change with reserves
func (p *LiquidityPool) UUID() string {
	return p.Dex + "." + p.AssetA.ID("") + "/" + p.AssetB.ID("") + "." + p.Identifier
}

// MarshalJSON adds the derived "uuid" so clients can address cached snapshots
func (p LiquidityPool) MarshalJSON() ([]byte, error) {
	type pool LiquidityPool
	return json.Marshal(struct {
		pool
		UUID string `json:"uuid"`
	}{pool(p), p.UUID()})
}

// HasToken reports whether t is one of the pool tokens
func (p *LiquidityPool) HasToken(t Token) bool {
	return TokensMatch(p.AssetA, t) || TokensMatch(p.AssetB, t)
}

// CorrespondingReserves returns (reserve of t, reserve of the other token)
func (p *LiquidityPool) CorrespondingReserves(t Token) (*big.Int, *big.Int, error) {
	switch {
	case TokensMatch(p.AssetA, t):
		return p.ReserveA, p.ReserveB, nil
	case TokensMatch(p.AssetB, t):
		return p.ReserveB, p.ReserveA, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrTokenNotInPool, t)
	}
}

// OtherToken returns the pool token that is not t
func (p *LiquidityPool) OtherToken(t Token) (Token, error) {
	switch {
	case TokensMatch(p.AssetA, t):
		return p.AssetB, nil
	case TokensMatch(p.AssetB, t):
		return p.AssetA, nil
	default:
		return Token{}, fmt.Errorf("%w: %s", ErrTokenNotInPool, t)
	}
}

// FirstAsset returns the first non-lovelace token of the pool
func (p *LiquidityPool) FirstAsset() (Asset, bool) {
	if a, ok := p.AssetA.Asset(); ok {
		return a, true
	}
	return p.AssetB.Asset()
}
