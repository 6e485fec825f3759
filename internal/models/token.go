package models

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Lovelace is the unit id used by ledger APIs for the native currency
const Lovelace = "lovelace"

// PolicyIDLength is the hex length of a minting policy id
const PolicyIDLength = 56

// Asset is a native (non-lovelace) token identified by policy id and hex asset name
type Asset struct {
	PolicyID string `json:"policy_id"`
	NameHex  string `json:"name_hex"`
	Decimals int    `json:"decimals"`
}

// NewAsset creates an asset, normalising hex casing
func NewAsset(policyID, nameHex string, decimals int) Asset {
	return Asset{
		PolicyID: strings.ToLower(policyID),
		NameHex:  strings.ToLower(nameHex),
		Decimals: decimals,
	}
}

// AssetFromID parses a concatenated id (policy id followed by the hex name),
// optionally separated by a dot
func AssetFromID(id string, decimals int) (Asset, error) {
	id = strings.ReplaceAll(strings.TrimSpace(id), ".", "")
	if len(id) < PolicyIDLength {
		return Asset{}, fmt.Errorf("asset id too short: %q", id)
	}
	if _, err := hex.DecodeString(id); err != nil {
		return Asset{}, fmt.Errorf("asset id is not hex: %w", err)
	}
	return NewAsset(id[:PolicyIDLength], id[PolicyIDLength:], decimals), nil
}

// ID returns policy id and asset name joined by sep
func (a Asset) ID(sep string) string {
	return a.PolicyID + sep + a.NameHex
}

// AssetName returns the decoded asset name, falling back to hex when it is not printable
func (a Asset) AssetName() string {
	b, err := hex.DecodeString(a.NameHex)
	if err != nil || len(b) == 0 {
		return a.NameHex
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return a.NameHex
		}
	}
	return string(b)
}

// Token is either lovelace or an Asset. The zero value is lovelace.
type Token struct {
	isAsset bool
	asset   Asset
}

// LovelaceToken returns the native currency token
func LovelaceToken() Token {
	return Token{}
}

// AssetToken wraps an asset into a Token
func AssetToken(a Asset) Token {
	return Token{isAsset: true, asset: a}
}

// TokenFromUnit builds a token from a ledger unit ("lovelace" or a concatenated asset id)
func TokenFromUnit(unit string) (Token, error) {
	if unit == "" || unit == Lovelace {
		return LovelaceToken(), nil
	}
	a, err := AssetFromID(unit, 0)
	if err != nil {
		return Token{}, err
	}
	return AssetToken(a), nil
}

// IsLovelace reports whether the token is the native currency
func (t Token) IsLovelace() bool {
	return !t.isAsset
}

// Asset returns the wrapped asset and false for lovelace
func (t Token) Asset() (Asset, bool) {
	return t.asset, t.isAsset
}

// ID returns "lovelace" or the asset id joined by sep
func (t Token) ID(sep string) string {
	if !t.isAsset {
		return Lovelace
	}
	return t.asset.ID(sep)
}

// Unit returns the ledger unit string (no separator)
func (t Token) Unit() string {
	return t.ID("")
}

// Decimals returns the display precision, 6 for lovelace
func (t Token) Decimals() int {
	if !t.isAsset {
		return 6
	}
	return t.asset.Decimals
}

// WithDecimals returns a copy of the token with decimals set; lovelace is returned unchanged
func (t Token) WithDecimals(decimals int) Token {
	if !t.isAsset {
		return t
	}
	a := t.asset
	a.Decimals = decimals
	return AssetToken(a)
}

// Ticker returns a short display name
func (t Token) Ticker() string {
	if !t.isAsset {
		return "ADA"
	}
	return t.asset.AssetName()
}

func (t Token) String() string {
	return t.ID(".")
}

// TokensMatch compares the tag and, for assets, policy id and name. Decimals are ignored.
func TokensMatch(a, b Token) bool {
	if a.isAsset != b.isAsset {
		return false
	}
	if !a.isAsset {
		return true
	}
	return strings.EqualFold(a.asset.PolicyID, b.asset.PolicyID) &&
		strings.EqualFold(a.asset.NameHex, b.asset.NameHex)
}

// MarshalJSON encodes lovelace as the string "lovelace" and assets as objects
func (t Token) MarshalJSON() ([]byte, error) {
	if !t.isAsset {
		return json.Marshal(Lovelace)
	}
	return json.Marshal(t.asset)
}

// UnmarshalJSON accepts "lovelace", a concatenated asset id string, or an asset object
func (t *Token) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		tok, err := TokenFromUnit(s)
		if err != nil {
			return err
		}
		*t = tok
		return nil
	}

	var a Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if a.PolicyID == "" {
		*t = LovelaceToken()
		return nil
	}
	*t = AssetToken(NewAsset(a.PolicyID, a.NameHex, a.Decimals))
	return nil
}
