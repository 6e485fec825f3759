package models

import "math/big"

// DatumParameterKey names a value bound into or read out of a datum template
type DatumParameterKey string

const (
	SenderPubKeyHash     DatumParameterKey = "SenderPubKeyHash"
	SenderStakingKeyHash DatumParameterKey = "SenderStakingKeyHash"
	ReceiverPubKeyHash   DatumParameterKey = "ReceiverPubKeyHash"

	SwapInTokenPolicyID   DatumParameterKey = "SwapInTokenPolicyId"
	SwapInTokenAssetName  DatumParameterKey = "SwapInTokenAssetName"
	SwapOutTokenPolicyID  DatumParameterKey = "SwapOutTokenPolicyId"
	SwapOutTokenAssetName DatumParameterKey = "SwapOutTokenAssetName"
	SwapInAmount          DatumParameterKey = "SwapInAmount"
	MinReceive            DatumParameterKey = "MinReceive"
	AllowPartialFill      DatumParameterKey = "AllowPartialFill"
	TotalFees             DatumParameterKey = "TotalFees"
	MatchmakerFee         DatumParameterKey = "MatchmakerFee"
	Deposit               DatumParameterKey = "Deposit"

	PoolAssetAPolicyID  DatumParameterKey = "PoolAssetAPolicyId"
	PoolAssetAAssetName DatumParameterKey = "PoolAssetAAssetName"
	PoolAssetBPolicyID  DatumParameterKey = "PoolAssetBPolicyId"
	PoolAssetBAssetName DatumParameterKey = "PoolAssetBAssetName"
	TotalLpTokens       DatumParameterKey = "TotalLpTokens"
	LpFee               DatumParameterKey = "LpFee"
)

// DatumParameters holds template values; bytes are hex strings, integers are *big.Int
type DatumParameters map[DatumParameterKey]any

// String returns a bytes parameter
func (p DatumParameters) String(key DatumParameterKey) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns an integer parameter, accepting the usual Go integer types
func (p DatumParameters) Int(key DatumParameterKey) (*big.Int, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	return toBigInt(v)
}

// Clone returns a shallow copy; *big.Int values are copied
func (p DatumParameters) Clone() DatumParameters {
	out := make(DatumParameters, len(p))
	for k, v := range p {
		if b, ok := v.(*big.Int); ok && b != nil {
			v = new(big.Int).Set(b)
		}
		out[k] = v
	}
	return out
}

func toBigInt(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Int).Set(n), true
	case int:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case string:
		// numeric strings come from JSON request bodies
		b, ok := new(big.Int).SetString(n, 10)
		return b, ok
	default:
		return nil, false
	}
}
