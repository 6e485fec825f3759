package models

import "math/big"

// AddressType describes how a payment destination is spent from
type AddressType string

const (
	AddressTypeContract   AddressType = "Contract"
	AddressTypeBase       AddressType = "Base"
	AddressTypeEnterprise AddressType = "Enterprise"
)

// ScriptType is the Plutus language version of a validator
type ScriptType string

const (
	PlutusV1 ScriptType = "PlutusV1"
	PlutusV2 ScriptType = "PlutusV2"
	PlutusV3 ScriptType = "PlutusV3"
)

// Script is an opaque validator reference
type Script struct {
	Type    ScriptType `json:"type"`
	CBORHex string     `json:"cbor_hex"`
}

// SpendUTxO is an input to be consumed by the downstream transaction builder
type SpendUTxO struct {
	UTxO      UTxO    `json:"utxo"`
	Redeemer  string  `json:"redeemer,omitempty"`
	Validator *Script `json:"validator,omitempty"`
	Signer    string  `json:"signer,omitempty"`
}

// PayToAddress is a payment instruction handed to a transaction builder.
// It never carries keys, only the identity of the signer.
type PayToAddress struct {
	Address       string         `json:"address"`
	AddressType   AddressType    `json:"address_type"`
	AssetBalances []AssetBalance `json:"asset_balances"`
	Datum         string         `json:"datum,omitempty"`
	IsInlineDatum bool           `json:"is_inline_datum"`
	SpendUTxOs    []SpendUTxO    `json:"spend_utxos,omitempty"`
}

// Lovelace returns the lovelace amount locked by the instruction
func (p PayToAddress) Lovelace() *big.Int {
	total := new(big.Int)
	for _, b := range p.AssetBalances {
		if b.Token.IsLovelace() {
			total.Add(total, b.Quantity)
		}
	}
	return total
}

// SwapFee is a static fee schedule entry of a protocol
type SwapFee struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Value       *big.Int `json:"value"`
	IsReturned  bool     `json:"is_returned"`
}

// FindSwapFee returns the fee with the given id
func FindSwapFee(fees []SwapFee, id string) (SwapFee, bool) {
	for _, f := range fees {
		if f.ID == id {
			return f, true
		}
	}
	return SwapFee{}, false
}

// AssetMetadata is the registry information for an asset
type AssetMetadata struct {
	PolicyID string `json:"policy_id"`
	NameHex  string `json:"name_hex"`
	Decimals int    `json:"decimals"`
}
