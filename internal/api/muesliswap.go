package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/circuitbreaker"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

var muesliProviders = []string{"muesliswap", "muesliswap_v2", "muesliswap_clp"}

// MuesliSwapConfig holds configuration for the MuesliSwap REST client
type MuesliSwapConfig struct {
	BaseURL      string
	Dex          string // identifier stamped on returned pools
	OrderAddress string // order contract address, used as order and cancel address
	Timeout      time.Duration
	Logger       *logrus.Logger
}

// MuesliSwap reads pools from the MuesliSwap REST API
type MuesliSwap struct {
	BaseURL string
	HTTP    *http.Client

	dex          string
	orderAddress string
	breaker      *gobreaker.CircuitBreaker[[]byte]
	logger       *logrus.Logger
}

// NewMuesliSwap creates a MuesliSwap API client
func NewMuesliSwap(cfg MuesliSwapConfig) *MuesliSwap {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.muesliswap.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}

	return &MuesliSwap{
		BaseURL:      baseURL,
		HTTP:         &http.Client{Timeout: cfg.Timeout},
		dex:          cfg.Dex,
		orderAddress: cfg.OrderAddress,
		breaker:      circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("muesliswap-api").LogStateChanges(cfg.Logger)),
		logger:       cfg.Logger,
	}
}

// LiquidityPools queries pools for the pair; a nil assetB returns every pool with assetA
func (c *MuesliSwap) LiquidityPools(ctx context.Context, assetA models.Token, assetB *models.Token) ([]*models.LiquidityPool, error) {
	q := url.Values{}
	q.Set("providers", strings.Join(muesliProviders, ","))
	q.Set("token-a", tokenParam(assetA))
	if assetB != nil {
		q.Set("token-b", tokenParam(*assetB))
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, c.BaseURL+"/liquidity/pools?"+q.Encode())
	})
	if err != nil {
		return nil, err
	}

	var raw []muesliPool
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode muesliswap pools response: %w", err)
	}

	pools := make([]*models.LiquidityPool, 0, len(raw))
	for _, p := range raw {
		pool, err := c.toPool(p)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"dex":      c.dex,
				"provider": p.Provider,
				"lp_token": p.LPToken.Address.PolicyID + p.LPToken.Address.Name,
			}).WithError(err).Debug("skipping api pool")
			continue
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

func (c *MuesliSwap) toPool(p muesliPool) (*models.LiquidityPool, error) {
	reserveA, err := parseAmount(p.TokenA.Amount)
	if err != nil {
		return nil, fmt.Errorf("tokenA amount: %w", err)
	}
	reserveB, err := parseAmount(p.TokenB.Amount)
	if err != nil {
		return nil, fmt.Errorf("tokenB amount: %w", err)
	}

	pool, err := models.NewLiquidityPool(
		c.dex,
		muesliTokenToToken(p.TokenA),
		muesliTokenToToken(p.TokenB),
		reserveA,
		reserveB,
		p.BatcherAddress,
		c.orderAddress,
		c.orderAddress,
	)
	if err != nil {
		return nil, err
	}

	if p.LPToken.Address.PolicyID != "" {
		pool.SetLPToken(models.NewAsset(p.LPToken.Address.PolicyID, p.LPToken.Address.Name, 0))
	}
	if total, err := parseAmount(p.LPToken.Amount); err == nil {
		pool.TotalLPTokens = total
	}
	if fee, err := strconv.ParseFloat(p.PoolFee.String(), 64); err == nil {
		_ = pool.SetFeePercent(fee)
	}
	return pool, nil
}

func (c *MuesliSwap) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{Service: "muesliswap", StatusCode: res.StatusCode, Body: body}
	}
	return body, nil
}

func muesliTokenToToken(t muesliToken) models.Token {
	if t.Address.PolicyID == "" || t.Symbol == "ADA" {
		return models.LovelaceToken()
	}
	return models.AssetToken(models.NewAsset(t.Address.PolicyID, t.Address.Name, t.DecimalPlaces))
}

// tokenParam renders a token as the API expects: "." for ADA, "policy.name" otherwise
func tokenParam(t models.Token) string {
	if t.IsLovelace() {
		return "."
	}
	return t.ID(".")
}

func parseAmount(n flexNumber) (*big.Int, error) {
	s := n.String()
	if s == "" {
		return nil, fmt.Errorf("missing amount")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}
