package constants

import "time"

// Redis keys
const (
	RedisKeyDecimalsPrefix = "metadata:decimals:"
	RedisKeyPoolIndex      = "pools:index"
	RedisKeyPoolPrefix     = "pool:"
	RedisKeyFlags          = "flags"
)

// Redis Pub/Sub channels
const (
	PubSubChannelPools      = "pools:all"
	PubSubChannelDexPrefix  = "pools:dex:"
	PubSubChannelPairPrefix = "pools:pair:"
)

// Limits
const (
	MaxQuoteSlippageBps = 5000
	MaxHistoryResults   = 1000
	PoolSnapshotPolls   = 3 // poll intervals a cached pool snapshot survives without a refresh
)

// Timeouts
const (
	RequestTimeout = 30 * time.Second
	FetchTimeout   = 2 * time.Minute
)
