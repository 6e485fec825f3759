package metadata

import (
	"context"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// Service looks up display metadata for assets
type Service interface {
	FetchDecimals(ctx context.Context, assets []models.Asset) ([]models.AssetMetadata, error)
}

// Store caches decimals keyed by concatenated asset id
type Store interface {
	GetDecimals(ctx context.Context, ids []string) (map[string]int, error)
	SetDecimals(ctx context.Context, decimals map[string]int) error
}
