package server

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/amm"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/constants"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/labstack/echo/v4"
)

func splitCSVQuery(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		parts := strings.Split(v, ",")
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Quote prices a swap against the pool snapshot in the body using the pool's own adapter math.
// ExactIn estimates the output of Amount of Token; ExactOut estimates the input needed to
// receive Amount of Token.
func (h *Handlers) Quote(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if req.Pool == nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "required"})
	}

	amount, ok := new(big.Int).SetString(strings.TrimSpace(req.Amount), 10)
	if !ok || amount.Sign() <= 0 {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be a positive integer"})
	}

	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = QuoteExactIn
	}
	if mode != QuoteExactIn && mode != QuoteExactOut {
		return h.err(c, http.StatusBadRequest, "invalid mode", map[string]any{"mode": "must be ExactIn or ExactOut"})
	}

	if req.SlippageBps > constants.MaxQuoteSlippageBps {
		return h.err(c, http.StatusBadRequest, "invalid slippage_bps", map[string]any{"slippage_bps": "too large"})
	}

	d, ok := h.lookupDex(req.Pool.Dex)
	if !ok {
		return h.err(c, http.StatusNotFound, "unknown dex", map[string]any{"dex": req.Pool.Dex})
	}

	q, err := dex.QuoteSwap(d, req.Pool, req.Token, amount, mode == QuoteExactOut, req.SlippageBps)
	if err != nil {
		return h.fail(c, "quote failed", err)
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		Dex:                d.Name(),
		Mode:               mode,
		SwapInToken:        q.SwapInToken,
		SwapOutToken:       q.SwapOutToken,
		SwapInAmount:       q.SwapInAmount.String(),
		SwapOutAmount:      q.SwapOutAmount.String(),
		MinReceive:         q.MinReceive.String(),
		SwapInDisplay:      amm.ToDecimal(q.SwapInAmount, q.SwapInToken.Decimals()),
		SwapOutDisplay:     amm.ToDecimal(q.SwapOutAmount, q.SwapOutToken.Decimals()),
		PriceImpactPercent: q.PriceImpactPercent,
		SlippageBps:        req.SlippageBps,
	})
}
