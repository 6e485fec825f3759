package server

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/datum"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/fetch"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/provider"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	milkPolicy = "8a1cfae21368b8bebbbed9800fec304e95cce39a2a57dc35e2e3ebaa"
	milkName   = "4d494c4b"
	poolAddr   = "addr1pool"
)

func milk() models.Token {
	return models.AssetToken(models.NewAsset(milkPolicy, milkName, 0))
}

type testEnv struct {
	e        *echo.Echo
	h        *Handlers
	muesli   *dex.MuesliSwap
	provider *provider.Mock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	protocols, err := dex.DefaultProtocols()
	require.NoError(t, err)
	m, err := dex.NewMuesliSwap(protocols[dex.MuesliSwapIdentifier], dex.Options{Logger: logger})
	require.NoError(t, err)

	p := provider.NewMock()
	h := &Handlers{
		Dexs:         dex.NewRegistry(m),
		FetchOptions: fetch.Options{Provider: p, Logger: logger},
		Logger:       logger,
		DevMode:      true,
	}

	e := echo.New()
	RegisterRoutes(e, h, ServerConfig{})
	return &testEnv{e: e, h: h, muesli: m, provider: p}
}

// seedPool registers a MILK/ADA pool output with the mock provider
func (env *testEnv) seedPool(t *testing.T) {
	t.Helper()

	cfg := env.muesli.Config()
	factory, err := cfg.FactoryAsset()
	require.NoError(t, err)
	nft := models.NewAsset(cfg.PoolNFTPolicyIDs[0], "abcd", 0)

	env.provider.AddHolder(factory, models.AssetAddress{Address: poolAddr, Quantity: big.NewInt(1)})
	env.provider.AddDatum("d1", datum.Constr(0,
		datum.Constr(0, datum.Bytes(""), datum.Bytes("")),
		datum.Constr(0, datum.Bytes(milkPolicy), datum.Bytes(milkName)),
		datum.Int(70_000),
		datum.Int(30),
	))
	env.provider.AddUTxO(models.UTxO{
		TxHash:    "tx1",
		Address:   poolAddr,
		DatumHash: "d1",
		AssetBalances: []models.AssetBalance{
			models.NewAssetBalance(models.LovelaceToken(), big.NewInt(1_000_000_000)),
			models.NewAssetBalance(milk(), big.NewInt(500_000_000)),
			models.NewAssetBalance(models.AssetToken(factory), big.NewInt(1)),
			models.NewAssetBalance(models.AssetToken(nft), big.NewInt(1)),
		},
	})
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func testPool(t *testing.T) *models.LiquidityPool {
	pool, err := models.NewLiquidityPool(dex.MuesliSwapIdentifier, models.LovelaceToken(), milk(),
		big.NewInt(1_000_000_000), big.NewInt(500_000_000), poolAddr, "", "")
	require.NoError(t, err)
	require.NoError(t, pool.SetFeePercent(0.3))
	return pool
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.False(t, resp.Cache)
}

func TestListDexs(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/dexs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp DexsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{dex.MuesliSwapIdentifier}, resp.Items)
}

func TestDexFees(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/dexs/MuesliSwap/fees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp FeesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)

	rec = env.do(t, http.MethodGet, "/v1/dexs/Nope/fees", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPools(t *testing.T) {
	env := newTestEnv(t)
	env.seedPool(t)

	rec := env.do(t, http.MethodGet, "/v1/pools?tokenB="+milkPolicy+milkName, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PoolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "ADA/MILK", resp.Items[0].Pair())
	assert.Equal(t, "500000000", resp.Items[0].ReserveB.String())

	rec = env.do(t, http.MethodGet, "/v1/pools?dex=MuesliSwap&group=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped PoolsByDexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grouped))
	assert.Len(t, grouped.Items[dex.MuesliSwapIdentifier], 1)
}

func TestPools_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/pools?dex=Nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/pools?tokenA=zz", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPoolState(t *testing.T) {
	env := newTestEnv(t)
	env.seedPool(t)

	rec := env.do(t, http.MethodGet, "/v1/pools?tokenB="+milkPolicy+milkName, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pools PoolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pools))
	require.Len(t, pools.Items, 1)

	rec = env.do(t, http.MethodPost, "/v1/pools/state", pools.Items[0])
	require.Equal(t, http.StatusOK, rec.Code)
	var state models.LiquidityPool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, pools.Items[0].UUID(), state.UUID())

	missing := *pools.Items[0]
	missing.Identifier = "gone"
	rec = env.do(t, http.MethodPost, "/v1/pools/state", &missing)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPoolHistory_NoLPToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/pools/history", testPool(t))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PoolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
}

func TestCachedPools_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/cached/pools", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuote_ExactIn(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/quote", QuoteRequest{
		Pool:        testPool(t),
		Token:       models.LovelaceToken(),
		Amount:      "10000000",
		SlippageBps: 100,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, QuoteExactIn, resp.Mode)
	assert.Equal(t, "4935790", resp.SwapOutAmount)
	assert.Equal(t, "4886432", resp.MinReceive)
	assert.Equal(t, "10", resp.SwapInDisplay.String())
	assert.True(t, models.TokensMatch(milk(), resp.SwapOutToken))
	assert.InDelta(t, 1.3009, resp.PriceImpactPercent, 0.001)
}

func TestQuote_ExactOut(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/quote", QuoteRequest{
		Pool:   testPool(t),
		Token:  milk(),
		Amount: "4935790",
		Mode:   QuoteExactOut,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "9999908", resp.SwapInAmount)
	assert.True(t, resp.SwapInToken.IsLovelace())
}

func TestQuote_Invalid(t *testing.T) {
	env := newTestEnv(t)
	stranger := models.AssetToken(models.NewAsset("11111111111111111111111111111111111111111111111111111111", "", 0))

	cases := map[string]QuoteRequest{
		"no pool":       {Token: milk(), Amount: "1"},
		"bad amount":    {Pool: testPool(t), Token: milk(), Amount: "-4"},
		"bad mode":      {Pool: testPool(t), Token: milk(), Amount: "1", Mode: "Sideways"},
		"slippage":      {Pool: testPool(t), Token: milk(), Amount: "1", SlippageBps: 9000},
		"foreign token": {Pool: testPool(t), Token: stranger, Amount: "1"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/quote", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func swapOrderBody(t *testing.T) map[string]any {
	return map[string]any{
		"pool": testPool(t),
		"params": map[string]any{
			"SenderPubKeyHash":      "aa",
			"SenderStakingKeyHash":  "bb",
			"SwapInTokenPolicyId":   "",
			"SwapInTokenAssetName":  "",
			"SwapOutTokenPolicyId":  milkPolicy,
			"SwapOutTokenAssetName": milkName,
			"SwapInAmount":          10_000_000,
			"MinReceive":            "4900000",
		},
	}
}

func TestSwapOrder(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/orders/swap", swapOrderBody(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PaymentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, env.muesli.Config().OrderAddress, resp.Items[0].Address)
	assert.Equal(t, int64(12_650_000), resp.Items[0].Lovelace().Int64())
	assert.NotEmpty(t, resp.Items[0].Datum)
}

func TestSwapOrder_MissingMinReceive(t *testing.T) {
	env := newTestEnv(t)

	body := swapOrderBody(t)
	delete(body["params"].(map[string]any), "MinReceive")

	rec := env.do(t, http.MethodPost, "/v1/orders/swap", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwapOrder_InvalidDatumParams(t *testing.T) {
	env := newTestEnv(t)

	body := swapOrderBody(t)
	delete(body["params"].(map[string]any), "SenderPubKeyHash")
	rec := env.do(t, http.MethodPost, "/v1/orders/swap", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	body = swapOrderBody(t)
	body["params"].(map[string]any)["SenderPubKeyHash"] = "not-hex"
	rec = env.do(t, http.MethodPost, "/v1/orders/swap", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t)
	order := models.UTxO{
		TxHash:  "order",
		Address: env.muesli.Config().OrderAddress,
		AssetBalances: []models.AssetBalance{
			models.NewAssetBalance(models.LovelaceToken(), big.NewInt(2_650_000)),
		},
	}

	rec := env.do(t, http.MethodPost, "/v1/orders/cancel", CancelOrderRequest{
		Dex:           dex.MuesliSwapIdentifier,
		TxOutputs:     []models.UTxO{order},
		RefundAddress: "addr1me",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PaymentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "addr1me", resp.Items[0].Address)

	rec = env.do(t, http.MethodPost, "/v1/orders/cancel", CancelOrderRequest{
		Dex:           dex.MuesliSwapIdentifier,
		TxOutputs:     []models.UTxO{{Address: "other"}},
		RefundAddress: "addr1me",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouteNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToDatumParameters(t *testing.T) {
	params, err := toDatumParameters(map[string]RawParam{
		"SwapInAmount":     RawParam(`123456789012345678901234567890`),
		"SenderPubKeyHash": RawParam(`"aa"`),
	})
	require.NoError(t, err)

	n, ok := params.Int(models.SwapInAmount)
	require.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", n.String())
	s, _ := params.String(models.SenderPubKeyHash)
	assert.Equal(t, "aa", s)

	_, err = toDatumParameters(map[string]RawParam{"X": RawParam(`1.5`)})
	assert.Error(t, err)
}
