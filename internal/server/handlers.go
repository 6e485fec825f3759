package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/cache"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/constants"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/fetch"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/flags"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrDexDisabled is returned when a request names an adapter that is switched off
var ErrDexDisabled = fmt.Errorf("%w: dex is disabled", dex.ErrConfiguration)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Dexs         dex.Registry      // Available protocol adapters
	FetchOptions fetch.Options     // Provider, metadata and fallback settings for each request
	Cache        storage.PoolCache // Latest pool snapshots written by the indexer (optional)
	Flags        *flags.Store      // Runtime adapter switches (optional)
	DevMode      bool              // Enable detailed error responses in development
	Logger       *logrus.Logger    // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// fail maps a domain error to a status code
func (h *Handlers) fail(c echo.Context, msg string, err error) error {
	return h.err(c, statusFor(err), msg, map[string]any{"err": err.Error()})
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// newRequest builds a fetch request over the named adapters, or all of them when names is empty.
// Adapters switched off by a flag are left out; naming one explicitly is an error.
func (h *Handlers) newRequest(ctx context.Context, names []string) (*fetch.Request, error) {
	r := fetch.NewRequest(h.Dexs, h.fetchOptions())

	if h.Flags == nil {
		if len(names) == 0 {
			return r.ForAllDexs(), nil
		}
		return r.ForDexs(names...)
	}

	explicit := len(names) > 0
	if !explicit {
		names = h.Dexs.Names()
	}
	enabled, disabled, err := h.Flags.SelectDexs(ctx, names)
	if err != nil {
		h.Logger.WithError(err).Warn("failed to read dex flags, using every adapter")
		return r.ForDexs(names...)
	}
	if explicit && len(disabled) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrDexDisabled, disabled)
	}
	return r.ForDexs(enabled...)
}

func (h *Handlers) fetchOptions() fetch.Options {
	opts := h.FetchOptions
	if opts.Logger == nil {
		opts.Logger = h.Logger
	}
	return opts
}

func (h *Handlers) lookupDex(name string) (dex.Dex, bool) {
	d, ok := h.Dexs[name]
	return d, ok
}

// Health reports liveness and whether the pool cache answers
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true}
	if h.Cache != nil {
		ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		resp.Cache = h.Cache.Ping(ctx) == nil
	}
	return c.JSON(http.StatusOK, resp)
}

// ListDexs returns the available adapter names, sorted
func (h *Handlers) ListDexs(c echo.Context) error {
	return c.JSON(http.StatusOK, DexsResponse{Items: h.Dexs.Names()})
}

// DexFees returns the static fee schedule of one adapter
func (h *Handlers) DexFees(c echo.Context) error {
	name := c.Param("dex")
	d, ok := h.lookupDex(name)
	if !ok {
		return h.err(c, http.StatusNotFound, "unknown dex", map[string]any{"dex": name})
	}
	return c.JSON(http.StatusOK, FeesResponse{Dex: name, Items: d.SwapOrderFees()})
}

// Pools fetches live pools, optionally restricted to adapters (dex=A,B) and a pair (tokenA, tokenB).
// group=true returns the pools keyed by adapter.
func (h *Handlers) Pools(c echo.Context) error {
	filter, err := pairFilter(c.QueryParam("tokenA"), c.QueryParam("tokenB"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid token", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), constants.FetchTimeout)
	defer cancel()

	req, err := h.newRequest(ctx, splitCSVQuery(c.QueryParams()["dex"]))
	if err != nil {
		return h.fail(c, "invalid dex selection", err)
	}

	if strings.EqualFold(c.QueryParam("group"), "true") {
		groups, err := req.GetLiquidityPoolsByDex(ctx, filter)
		if err != nil {
			return h.fail(c, "failed to fetch pools", err)
		}
		return c.JSON(http.StatusOK, PoolsByDexResponse{Items: groups})
	}

	pools, err := req.GetLiquidityPools(ctx, filter)
	if err != nil {
		return h.fail(c, "failed to fetch pools", err)
	}
	if pools == nil {
		pools = []*models.LiquidityPool{}
	}
	return c.JSON(http.StatusOK, PoolsResponse{Items: pools})
}

// PoolState re-reads the pool given in the body; 404 when it no longer exists
func (h *Handlers) PoolState(c echo.Context) error {
	var pool models.LiquidityPool
	if err := c.Bind(&pool); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if pool.Dex == "" || pool.Address == "" {
		return h.err(c, http.StatusBadRequest, "dex and address are required", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), constants.RequestTimeout)
	defer cancel()

	state, err := fetch.NewRequest(h.Dexs, h.fetchOptions()).GetLiquidityPoolState(ctx, &pool)
	if err != nil {
		return h.fail(c, "failed to fetch pool state", err)
	}
	if state == nil {
		return h.err(c, http.StatusNotFound, "pool not found", map[string]any{"uuid": pool.UUID()})
	}
	return c.JSON(http.StatusOK, state)
}

// PoolHistory replays the pool's LP token transactions
func (h *Handlers) PoolHistory(c echo.Context) error {
	var pool models.LiquidityPool
	if err := c.Bind(&pool); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if pool.Dex == "" || pool.Address == "" {
		return h.err(c, http.StatusBadRequest, "dex and address are required", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), constants.FetchTimeout)
	defer cancel()

	history, err := fetch.NewRequest(h.Dexs, h.fetchOptions()).GetLiquidityPoolHistory(ctx, &pool)
	if err != nil {
		return h.fail(c, "failed to fetch pool history", err)
	}
	if len(history) > constants.MaxHistoryResults {
		history = history[len(history)-constants.MaxHistoryResults:]
	}
	return c.JSON(http.StatusOK, PoolsResponse{Items: history})
}

// CachedPools returns the snapshots last written by the indexer
func (h *Handlers) CachedPools(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusBadRequest, "pool cache is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pools, err := h.Cache.ListPools(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list cached pools", nil)
	}
	return c.JSON(http.StatusOK, PoolsResponse{Items: pools})
}

// CachedPool returns one cached snapshot by pool UUID. UUIDs contain slashes so the
// route matches the rest of the path.
func (h *Handlers) CachedPool(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusBadRequest, "pool cache is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	pool, err := h.Cache.GetPool(ctx, c.Param("*"))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "pool not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get cached pool", nil)
	}
	return c.JSON(http.StatusOK, pool)
}

// SwapOrder builds the payments that place a swap order against the body's pool
func (h *Handlers) SwapOrder(c echo.Context) error {
	var req SwapOrderRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if req.Pool == nil {
		return h.err(c, http.StatusBadRequest, "pool is required", map[string]any{"pool": "required"})
	}
	d, ok := h.lookupDex(req.Pool.Dex)
	if !ok {
		return h.err(c, http.StatusNotFound, "unknown dex", map[string]any{"dex": req.Pool.Dex})
	}

	params, err := toDatumParameters(req.Params)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid params", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), constants.RequestTimeout)
	defer cancel()

	payments, err := d.BuildSwapOrder(ctx, req.Pool, params, req.SpendUTxOs)
	if err != nil {
		return h.fail(c, "failed to build swap order", err)
	}
	return c.JSON(http.StatusOK, PaymentsResponse{Items: payments})
}

// CancelOrder builds the payments that refund an open order
func (h *Handlers) CancelOrder(c echo.Context) error {
	var req CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.RefundAddress = strings.TrimSpace(req.RefundAddress)
	if req.RefundAddress == "" {
		return h.err(c, http.StatusBadRequest, "refund_address is required", map[string]any{"refund_address": "required"})
	}
	d, ok := h.lookupDex(req.Dex)
	if !ok {
		return h.err(c, http.StatusNotFound, "unknown dex", map[string]any{"dex": req.Dex})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), constants.RequestTimeout)
	defer cancel()

	payments, err := d.BuildCancelSwapOrder(ctx, req.TxOutputs, req.RefundAddress)
	if err != nil {
		return h.fail(c, "failed to build cancel order", err)
	}
	return c.JSON(http.StatusOK, PaymentsResponse{Items: payments})
}

// pairFilter parses the tokenA/tokenB query units; an empty tokenA means lovelace
func pairFilter(a, b string) (fetch.PairFilter, error) {
	tokenA, err := models.TokenFromUnit(strings.TrimSpace(a))
	if err != nil {
		return fetch.PairFilter{}, err
	}
	filter := fetch.PairFilter{A: tokenA}

	if b = strings.TrimSpace(b); b != "" {
		tokenB, err := models.TokenFromUnit(b)
		if err != nil {
			return fetch.PairFilter{}, err
		}
		filter.B = &tokenB
	}
	return filter, nil
}
