package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// PoolAPI is a protocol's own REST view of its liquidity pools
type PoolAPI interface {
	// LiquidityPools returns pools containing assetA, and assetB when given
	LiquidityPools(ctx context.Context, assetA models.Token, assetB *models.Token) ([]*models.LiquidityPool, error)
}

type HTTPError struct {
	Service    string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("%s http %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s http %d: %s", e.Service, e.StatusCode, b)
}

// flexNumber accepts JSON numbers and numeric strings
type flexNumber string

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = flexNumber(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = flexNumber(num.String())
	return nil
}

func (n flexNumber) String() string {
	return string(n)
}
