package dex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProtocols(t *testing.T) {
	protocols, err := DefaultProtocols()
	require.NoError(t, err)

	cfg, ok := protocols[MuesliSwapIdentifier]
	require.True(t, ok)
	assert.Equal(t, 2, cfg.Version)
	assert.Equal(t, "de9b756719341e79785aa13c164e7fe68c189ed04d61c9876b2fe53f", cfg.FactoryPolicyID())
	assert.True(t, cfg.IsPoolNFTPolicy("909133088303C49F3A30F1CC8ED553A73857A29779F6C6561CD8093F"))
	assert.False(t, cfg.IsPoolNFTPolicy(cfg.LPTokenPolicyID))
	assert.NotEmpty(t, cfg.OrderScript.CBORHex)
}

func TestLoadProtocols_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocols.json")
	override := `{
  "MuesliSwap": {
    "version": 3,
    "order_address": "addr1neworder",
    "lp_token_policy_id": "af3d70acf4bd5b3abb319a7d75c89fb3e56eafcdd46b2e9b57a2557f",
    "pool_nft_policy_ids": [],
    "factory_token": "de9b756719341e79785aa13c164e7fe68c189ed04d61c9876b2fe53f4d7565736c69537761705f414d4d",
    "cancel_redeemer": "d87980",
    "order_script": {"type": "PlutusV2", "cbor_hex": "00"},
    "swap_fees": [{"id": "matchmakerFee", "value": 1}, {"id": "deposit", "value": 2, "is_returned": true}]
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(override), 0o600))

	protocols, err := LoadProtocols(path)
	require.NoError(t, err)

	cfg := protocols[MuesliSwapIdentifier]
	assert.Equal(t, MuesliSwapIdentifier, cfg.Identifier)
	assert.Equal(t, 3, cfg.Version)
	assert.Equal(t, "addr1neworder", cfg.OrderAddress)
}

func TestLoadProtocols_Invalid(t *testing.T) {
	dir := t.TempDir()

	mismatched := filepath.Join(dir, "mismatched.json")
	require.NoError(t, os.WriteFile(mismatched, []byte(`{"A": {"identifier": "B"}}`), 0o600))
	_, err := LoadProtocols(mismatched)
	assert.ErrorIs(t, err, ErrConfiguration)

	noAddress := filepath.Join(dir, "no-address.json")
	require.NoError(t, os.WriteFile(noAddress, []byte(`{"A": {"factory_token": "de9b756719341e79785aa13c164e7fe68c189ed04d61c9876b2fe53f"}}`), 0o600))
	_, err = LoadProtocols(noAddress)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = LoadProtocols(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestBuildRegistry(t *testing.T) {
	protocols, err := DefaultProtocols()
	require.NoError(t, err)

	unknown := protocols[MuesliSwapIdentifier]
	unknown.Identifier = "Unlisted"
	protocols["Unlisted"] = unknown

	r, err := BuildRegistry(protocols, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{MuesliSwapIdentifier}, r.Names())
	assert.Nil(t, r[MuesliSwapIdentifier].API())
}
