package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/circuitbreaker"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

const maxSubjectsPerQuery = 100

// TokenRegistry queries the Cardano token registry batch endpoint
type TokenRegistry struct {
	BaseURL string
	HTTP    *http.Client

	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *logrus.Logger
}

type registryQuery struct {
	Subjects   []string `json:"subjects"`
	Properties []string `json:"properties"`
}

type registryResponse struct {
	Subjects []struct {
		Subject  string `json:"subject"`
		Decimals *struct {
			Value int `json:"value"`
		} `json:"decimals"`
	} `json:"subjects"`
}

// NewTokenRegistry creates a registry client
func NewTokenRegistry(baseURL string, logger *logrus.Logger) *TokenRegistry {
	if logger == nil {
		logger = logrus.New()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://tokens.cardano.org"
	}
	return &TokenRegistry{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 12 * time.Second},
		breaker: circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("token-registry").LogStateChanges(logger)),
		logger:  logger,
	}
}

// FetchDecimals returns one entry per requested asset; assets unknown to the registry get 0
func (r *TokenRegistry) FetchDecimals(ctx context.Context, assets []models.Asset) ([]models.AssetMetadata, error) {
	found := map[string]int{}

	for start := 0; start < len(assets); start += maxSubjectsPerQuery {
		end := min(start+maxSubjectsPerQuery, len(assets))

		subjects := make([]string, 0, end-start)
		for _, a := range assets[start:end] {
			subjects = append(subjects, a.ID(""))
		}

		res, err := r.query(ctx, subjects)
		if err != nil {
			return nil, err
		}
		for _, s := range res.Subjects {
			if s.Decimals != nil {
				found[strings.ToLower(s.Subject)] = s.Decimals.Value
			}
		}
	}

	out := make([]models.AssetMetadata, 0, len(assets))
	for _, a := range assets {
		out = append(out, models.AssetMetadata{
			PolicyID: a.PolicyID,
			NameHex:  a.NameHex,
			Decimals: found[a.ID("")],
		})
	}
	return out, nil
}

func (r *TokenRegistry) query(ctx context.Context, subjects []string) (*registryResponse, error) {
	payload, err := json.Marshal(registryQuery{Subjects: subjects, Properties: []string{"decimals"}})
	if err != nil {
		return nil, fmt.Errorf("marshal registry query: %w", err)
	}

	body, err := r.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/metadata/query", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := r.HTTP.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		b, _ := io.ReadAll(res.Body)
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			return nil, fmt.Errorf("token registry http %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	var out registryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode token registry response: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"requested": len(subjects),
		"returned":  len(out.Subjects),
	}).Debug("token registry query")
	return &out, nil
}
