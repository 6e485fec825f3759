package storage

import (
	"context"
	"io"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// PoolCache defines the interface for the latest pool snapshots
type PoolCache interface {
	// PutPools stores the latest state of each pool
	PutPools(ctx context.Context, pools []*models.LiquidityPool) error

	// GetPool returns the latest state of a pool by UUID
	GetPool(ctx context.Context, uuid string) (*models.LiquidityPool, error)

	// ListPools returns every cached pool
	ListPools(ctx context.Context) ([]*models.LiquidityPool, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// PoolPublisher broadcasts pool snapshots to subscribers
type PoolPublisher interface {
	PublishPools(ctx context.Context, pools []*models.LiquidityPool) error
}

// PoolStore defines the interface for persistent pool snapshot storage
type PoolStore interface {
	// InsertPoolSnapshots appends one row per pool
	InsertPoolSnapshots(ctx context.Context, pools []*models.LiquidityPool) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// PoolHandler is a function that processes a polled batch of pools
type PoolHandler func(ctx context.Context, pools []*models.LiquidityPool)
