package models

import (
	"math/big"
	"time"
)

// AssetBalance is a quantity of one token held by an output
type AssetBalance struct {
	Token    Token    `json:"token"`
	Quantity *big.Int `json:"quantity"`
}

// NewAssetBalance copies quantity into a fresh balance
func NewAssetBalance(t Token, quantity *big.Int) AssetBalance {
	q := new(big.Int)
	if quantity != nil {
		q.Set(quantity)
	}
	return AssetBalance{Token: t, Quantity: q}
}

// UTxO is an unspent transaction output
type UTxO struct {
	TxHash        string         `json:"tx_hash"`
	OutputIndex   int            `json:"output_index"`
	Address       string         `json:"address"`
	DatumHash     string         `json:"datum_hash,omitempty"`
	AssetBalances []AssetBalance `json:"asset_balances"`
}

// HasDatum reports whether a datum hash is attached
func (u UTxO) HasDatum() bool {
	return u.DatumHash != ""
}

// Balance returns the quantity held of t, or zero
func (u UTxO) Balance(t Token) *big.Int {
	for _, b := range u.AssetBalances {
		if TokensMatch(b.Token, t) {
			return new(big.Int).Set(b.Quantity)
		}
	}
	return new(big.Int)
}

// Transaction references a ledger transaction
type Transaction struct {
	Hash        string    `json:"hash"`
	BlockHeight uint64    `json:"block_height"`
	BlockTime   time.Time `json:"block_time"`
}

// AssetAddress is an address holding some quantity of an asset
type AssetAddress struct {
	Address  string   `json:"address"`
	Quantity *big.Int `json:"quantity"`
}
