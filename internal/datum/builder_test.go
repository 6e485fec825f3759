package datum

import (
	"math/big"
	"strings"
	"testing"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolTemplate() Field {
	return Constr(0,
		Constr(0, BytesParam(models.PoolAssetAPolicyID), BytesParam(models.PoolAssetAAssetName)),
		Constr(0, BytesParam(models.PoolAssetBPolicyID), BytesParam(models.PoolAssetBAssetName)),
		IntParam(models.TotalLpTokens),
		IntParam(models.LpFee),
	)
}

const poolDatumJSON = `{
  "constructor": 0,
  "fields": [
    {"constructor": 0, "fields": [{"bytes": ""}, {"bytes": ""}]},
    {"constructor": 0, "fields": [
      {"bytes": "8a1cfae21368b8bebbbed9800fec304e95cce39a2a57dc35e2e3ebaa"},
      {"bytes": "4d494c4b"}
    ]},
    {"int": 123456789012345678901234567890},
    {"int": 30}
  ]
}`

func TestFromJSON(t *testing.T) {
	f, err := FromJSON([]byte(poolDatumJSON))
	require.NoError(t, err)

	assert.Equal(t, KindConstr, f.Kind)
	require.Len(t, f.Fields, 4)
	assert.Equal(t, KindInt, f.Fields[2].Kind)
	assert.Equal(t, "123456789012345678901234567890", f.Fields[2].Int.String())
	assert.Equal(t, "4d494c4b", f.Fields[1].Fields[1].Bytes)
}

func TestFromJSON_Invalid(t *testing.T) {
	for _, in := range []string{
		`[]`,
		`{"bytes": "zz"}`,
		`{"constructor": -1, "fields": []}`,
		`{"map": []}`,
		`{"foo": 1}`,
	} {
		_, err := FromJSON([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestBuilder_Parse(t *testing.T) {
	value, err := FromJSON([]byte(poolDatumJSON))
	require.NoError(t, err)

	b := NewBuilder()
	b.Load(poolTemplate())

	params, err := b.Parse(value)
	require.NoError(t, err)

	policy, ok := params.String(models.PoolAssetAPolicyID)
	require.True(t, ok)
	assert.Equal(t, "", policy)

	name, _ := params.String(models.PoolAssetBAssetName)
	assert.Equal(t, "4d494c4b", name)

	fee, ok := params.Int(models.LpFee)
	require.True(t, ok)
	assert.Equal(t, int64(30), fee.Int64())
}

func TestBuilder_ParseShapeMismatch(t *testing.T) {
	b := NewBuilder()
	b.Load(poolTemplate())

	_, err := b.Parse(Constr(0, Int(1)))
	assert.ErrorIs(t, err, ErrShape)

	_, err = b.Parse(Constr(1))
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewBuilder().Parse(Int(1))
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestBuilder_OptionalIntParam(t *testing.T) {
	b := NewBuilder()
	b.Load(Constr(0, OptionalIntParam(models.LpFee), IntParam(models.TotalLpTokens)))

	params, err := b.Parse(Constr(0, Bytes("1e"), Int(5)))
	require.NoError(t, err)
	_, ok := params.Int(models.LpFee)
	assert.False(t, ok)
	total, ok := params.Int(models.TotalLpTokens)
	require.True(t, ok)
	assert.Equal(t, int64(5), total.Int64())

	params, err = b.Parse(Constr(0, Int(30), Int(5)))
	require.NoError(t, err)
	fee, ok := params.Int(models.LpFee)
	require.True(t, ok)
	assert.Equal(t, int64(30), fee.Int64())

	// required leaves stay strict
	_, err = b.Parse(Constr(0, Int(30), Bytes("05")))
	assert.ErrorIs(t, err, ErrShape)
}

func TestBuilder_ConstrParam(t *testing.T) {
	tpl := Constr(0, ConstrParam(models.AllowPartialFill), IntParam(models.TotalFees))

	b := NewBuilder()
	b.Load(tpl)
	require.NoError(t, b.Build(models.DatumParameters{
		models.AllowPartialFill: 1,
		models.TotalFees:        big.NewInt(2_650_000),
	}))

	built, err := b.Built()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), built.Fields[0].Constructor)

	params, err := b.Parse(built)
	require.NoError(t, err)
	v, _ := params.Int(models.AllowPartialFill)
	assert.Equal(t, int64(1), v.Int64())
}

func TestBuilder_BuildMissingParam(t *testing.T) {
	b := NewBuilder()
	b.Load(poolTemplate())

	err := b.Build(models.DatumParameters{models.PoolAssetAPolicyID: ""})
	assert.ErrorIs(t, err, ErrMissingParam)

	_, err = b.Serialize()
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestBuilder_Serialize(t *testing.T) {
	b := NewBuilder()
	b.Load(Constr(0, BytesParam(models.SenderPubKeyHash), IntParam(models.MinReceive)))
	require.NoError(t, b.Build(models.DatumParameters{
		models.SenderPubKeyHash: "ABCD",
		models.MinReceive:       big.NewInt(5),
	}))

	out, err := b.SerializeHex()
	require.NoError(t, err)

	// tag 121 (constructor 0) wrapping an indefinite list: bytes(abcd), int 5
	assert.True(t, strings.HasPrefix(out, "d8799f"), out)
	assert.Contains(t, out, "42abcd05")
	assert.True(t, strings.HasSuffix(out, "ff"), out)
}
