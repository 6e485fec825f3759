package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/sirupsen/logrus"
)

// ClickHouseConfig holds the connection settings
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseStore appends pool snapshots to the pool_snapshots table
type ClickHouseStore struct {
	conn driver.Conn
	now  func() time.Time
}

const createPoolSnapshots = `
	CREATE TABLE IF NOT EXISTS pool_snapshots (
		captured_at     DateTime64(3),
		dex             LowCardinality(String),
		uuid            String,
		pair            String,
		asset_a         String,
		asset_b         String,
		reserve_a       UInt256,
		reserve_b       UInt256,
		total_lp_tokens UInt256,
		fee_percent     Float64,
		address         String
	) ENGINE = MergeTree
	ORDER BY (dex, uuid, captured_at)
`

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig, logger *logrus.Logger) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	if err := conn.Exec(ctx, createPoolSnapshots); err != nil {
		return nil, fmt.Errorf("failed to create pool_snapshots: %w", err)
	}

	if logger != nil {
		logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")
	}

	return &ClickHouseStore{conn: conn, now: time.Now}, nil
}

// InsertPoolSnapshots writes one row per pool in a single batch
func (c *ClickHouseStore) InsertPoolSnapshots(ctx context.Context, pools []*models.LiquidityPool) error {
	if len(pools) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `INSERT INTO pool_snapshots`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot batch: %w", err)
	}

	capturedAt := c.now().UTC()
	for _, pool := range pools {
		if err := batch.Append(
			capturedAt,
			pool.Dex,
			pool.UUID(),
			pool.Pair(),
			pool.AssetA.ID("."),
			pool.AssetB.ID("."),
			pool.ReserveA,
			pool.ReserveB,
			pool.TotalLPTokens,
			pool.PoolFeePercent,
			pool.Address,
		); err != nil {
			return fmt.Errorf("failed to append snapshot: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert pool snapshots: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
