package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/datum"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	pageSize = 100
	maxPages = 500
)

// ErrNotFound is returned when the indexer has no record of the requested resource
var ErrNotFound = errors.New("resource not found")

// Blockfrost is a DataProvider backed by the Blockfrost REST API, with
// rate limiting and retry on transient failures
type Blockfrost struct {
	httpClient   *http.Client
	baseURL      string
	projectID    string
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	logger       *logrus.Logger
}

// BlockfrostConfig holds configuration for the Blockfrost client
type BlockfrostConfig struct {
	BaseURL           string
	ProjectID         string
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *logrus.Logger
}

// NewBlockfrost creates a new Blockfrost client
func NewBlockfrost(cfg BlockfrostConfig) *Blockfrost {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10 // free tier steady rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 50
	}

	return &Blockfrost{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		projectID:    strings.TrimSpace(cfg.ProjectID),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:       cfg.Logger,
	}
}

// UTxOs fetches all outputs at address, optionally filtered by asset
func (c *Blockfrost) UTxOs(ctx context.Context, address string, asset *models.Asset) ([]models.UTxO, error) {
	path := "/addresses/" + url.PathEscape(address) + "/utxos"
	if asset != nil {
		path += "/" + asset.ID("")
	}

	raw, err := getAllPages[addressUTxO](ctx, c, path)
	if errors.Is(err, ErrNotFound) {
		return []models.UTxO{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.UTxO, 0, len(raw))
	for _, u := range raw {
		balances, err := toBalances(u.Amount)
		if err != nil {
			return nil, fmt.Errorf("utxo %s#%d: %w", u.TxHash, u.OutputIndex, err)
		}
		out = append(out, models.UTxO{
			TxHash:        u.TxHash,
			OutputIndex:   u.OutputIndex,
			Address:       u.Address,
			DatumHash:     deref(u.DataHash),
			AssetBalances: balances,
		})
	}
	return out, nil
}

// DatumValue resolves a datum hash into Plutus data
func (c *Blockfrost) DatumValue(ctx context.Context, datumHash string) (datum.Field, error) {
	var res datumValue
	if err := c.get(ctx, "/scripts/datum/"+url.PathEscape(datumHash), nil, &res); err != nil {
		return datum.Field{}, err
	}
	if len(res.JSONValue) == 0 {
		return datum.Field{}, fmt.Errorf("datum %s has no json value", datumHash)
	}
	return datum.FromJSON(res.JSONValue)
}

// AssetTransactions lists every transaction involving asset
func (c *Blockfrost) AssetTransactions(ctx context.Context, asset models.Asset) ([]models.Transaction, error) {
	raw, err := getAllPages[assetTransaction](ctx, c, "/assets/"+asset.ID("")+"/transactions")
	if errors.Is(err, ErrNotFound) {
		return []models.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.Transaction, 0, len(raw))
	for _, tx := range raw {
		out = append(out, models.Transaction{
			Hash:        tx.TxHash,
			BlockHeight: tx.BlockHeight,
			BlockTime:   time.Unix(tx.BlockTime, 0).UTC(),
		})
	}
	return out, nil
}

// TransactionUTxOs returns the non-collateral outputs of a transaction
func (c *Blockfrost) TransactionUTxOs(ctx context.Context, txHash string) ([]models.UTxO, error) {
	var res txUTxOs
	if err := c.get(ctx, "/txs/"+url.PathEscape(txHash)+"/utxos", nil, &res); err != nil {
		return nil, err
	}

	out := make([]models.UTxO, 0, len(res.Outputs))
	for _, o := range res.Outputs {
		if o.Collateral {
			continue
		}
		balances, err := toBalances(o.Amount)
		if err != nil {
			return nil, fmt.Errorf("tx %s output %d: %w", txHash, o.OutputIndex, err)
		}
		out = append(out, models.UTxO{
			TxHash:        txHash,
			OutputIndex:   o.OutputIndex,
			Address:       o.Address,
			DatumHash:     deref(o.DataHash),
			AssetBalances: balances,
		})
	}
	return out, nil
}

// AssetAddresses lists the addresses holding asset
func (c *Blockfrost) AssetAddresses(ctx context.Context, asset models.Asset) ([]models.AssetAddress, error) {
	raw, err := getAllPages[assetAddress](ctx, c, "/assets/"+asset.ID("")+"/addresses")
	if errors.Is(err, ErrNotFound) {
		return []models.AssetAddress{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.AssetAddress, 0, len(raw))
	for _, a := range raw {
		q, ok := new(big.Int).SetString(a.Quantity, 10)
		if !ok {
			return nil, fmt.Errorf("invalid quantity %q for %s", a.Quantity, a.Address)
		}
		out = append(out, models.AssetAddress{Address: a.Address, Quantity: q})
	}
	return out, nil
}

func getAllPages[T any](ctx context.Context, c *Blockfrost, path string) ([]T, error) {
	var all []T
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("page", fmt.Sprintf("%d", page))
		q.Set("count", fmt.Sprintf("%d", pageSize))

		var batch []T
		if err := c.get(ctx, path, q, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}

	c.logger.WithFields(logrus.Fields{
		"path":  path,
		"pages": maxPages,
	}).Warn("pagination limit reached")
	return all, nil
}

// get performs a GET with retry on rate limiting, 5xx and transport errors
func (c *Blockfrost) get(ctx context.Context, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"path":    path,
			}).Debug("retrying blockfrost request")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.doRequest(ctx, u)
		if err != nil {
			if !retryable(err) {
				return err
			}
			lastErr = err
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Blockfrost) doRequest(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if c.projectID != "" {
		req.Header.Set("project_id", c.projectID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		apiErr.StatusCode = resp.StatusCode
		return nil, apiErr
	}

	return body, nil
}

func retryable(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func toBalances(amounts []amount) ([]models.AssetBalance, error) {
	out := make([]models.AssetBalance, 0, len(amounts))
	for _, a := range amounts {
		tok, err := models.TokenFromUnit(a.Unit)
		if err != nil {
			return nil, err
		}
		q, ok := new(big.Int).SetString(a.Quantity, 10)
		if !ok {
			return nil, fmt.Errorf("invalid quantity %q for %s", a.Quantity, a.Unit)
		}
		out = append(out, models.AssetBalance{Token: tok, Quantity: q})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
