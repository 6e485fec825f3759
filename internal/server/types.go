package server

import (
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/flags"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/shopspring/decimal"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK    bool `json:"ok"`
	Cache bool `json:"cache"` // false when no pool cache is configured or it is unreachable
}

// DexsResponse lists the available adapter names
type DexsResponse struct {
	Items []string `json:"items"`
}

// PoolsResponse wraps a list of pools
type PoolsResponse struct {
	Items []*models.LiquidityPool `json:"items"`
}

// PoolsByDexResponse groups pools by adapter name
type PoolsByDexResponse struct {
	Items map[string][]*models.LiquidityPool `json:"items"`
}

// FeesResponse is the static fee schedule of one adapter
type FeesResponse struct {
	Dex   string           `json:"dex"`
	Items []models.SwapFee `json:"items"`
}

// Quote modes
const (
	QuoteExactIn  = "ExactIn"
	QuoteExactOut = "ExactOut"
)

// QuoteRequest prices a swap against a pool snapshot.
// Amount is the swap-in amount for ExactIn and the swap-out amount for ExactOut.
type QuoteRequest struct {
	Pool        *models.LiquidityPool `json:"pool"`
	Token       models.Token          `json:"token"`
	Amount      string                `json:"amount"`
	Mode        string                `json:"mode"`
	SlippageBps uint16                `json:"slippage_bps"`
}

// QuoteResponse carries minimal-unit amounts as strings and display amounts as decimals
type QuoteResponse struct {
	Dex                string          `json:"dex"`
	Mode               string          `json:"mode"`
	SwapInToken        models.Token    `json:"swap_in_token"`
	SwapOutToken       models.Token    `json:"swap_out_token"`
	SwapInAmount       string          `json:"swap_in_amount"`
	SwapOutAmount      string          `json:"swap_out_amount"`
	MinReceive         string          `json:"min_receive"`
	SwapInDisplay      decimal.Decimal `json:"swap_in_display"`
	SwapOutDisplay     decimal.Decimal `json:"swap_out_display"`
	PriceImpactPercent float64         `json:"price_impact_percent"`
	SlippageBps        uint16          `json:"slippage_bps"`
}

// SwapOrderRequest asks an adapter to build swap order payments.
// Params values are hex strings for bytes and JSON numbers or numeric strings for integers.
type SwapOrderRequest struct {
	Pool       *models.LiquidityPool `json:"pool"`
	Params     map[string]RawParam   `json:"params"`
	SpendUTxOs []models.SpendUTxO    `json:"spend_utxos"`
}

// CancelOrderRequest asks an adapter to build the refund of an open order
type CancelOrderRequest struct {
	Dex           string        `json:"dex"`
	TxOutputs     []models.UTxO `json:"tx_outputs"`
	RefundAddress string        `json:"refund_address"`
}

// PaymentsResponse wraps payment instructions for a transaction builder
type PaymentsResponse struct {
	Items []models.PayToAddress `json:"items"`
}

// FlagUpdateRequest sets one switch; the key comes from the path
type FlagUpdateRequest struct {
	Value bool `json:"value"`
}

type FlagsResponse struct {
	Items []*flags.Flag `json:"items"`
}
