package provider

import (
	"context"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/datum"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// DataProvider is the ledger indexer used for on-chain pool discovery
type DataProvider interface {
	// UTxOs returns the outputs at address, optionally only those holding asset
	UTxOs(ctx context.Context, address string, asset *models.Asset) ([]models.UTxO, error)

	// DatumValue resolves a datum hash into structured Plutus data
	DatumValue(ctx context.Context, datumHash string) (datum.Field, error)

	// AssetTransactions lists the transactions that moved asset
	AssetTransactions(ctx context.Context, asset models.Asset) ([]models.Transaction, error)

	// TransactionUTxOs returns the outputs created by a transaction
	TransactionUTxOs(ctx context.Context, txHash string) ([]models.UTxO, error)

	// AssetAddresses lists the addresses currently holding asset
	AssetAddresses(ctx context.Context, asset models.Asset) ([]models.AssetAddress, error)
}
