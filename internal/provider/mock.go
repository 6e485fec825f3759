package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/datum"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// Mock is an in-memory DataProvider for tests and offline tooling.
// Errors set in Fail are returned for the matching method name.
type Mock struct {
	mu sync.RWMutex

	utxos        map[string][]models.UTxO
	datums       map[string]datum.Field
	transactions map[string][]models.Transaction
	txOutputs    map[string][]models.UTxO
	holders      map[string][]models.AssetAddress

	Fail map[string]error
}

// NewMock creates an empty mock provider
func NewMock() *Mock {
	return &Mock{
		utxos:        map[string][]models.UTxO{},
		datums:       map[string]datum.Field{},
		transactions: map[string][]models.Transaction{},
		txOutputs:    map[string][]models.UTxO{},
		holders:      map[string][]models.AssetAddress{},
		Fail:         map[string]error{},
	}
}

// AddUTxO registers an unspent output at its address
func (m *Mock) AddUTxO(u models.UTxO) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utxos[u.Address] = append(m.utxos[u.Address], u)
}

// AddDatum registers a datum value under hash
func (m *Mock) AddDatum(hash string, value datum.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datums[hash] = value
}

// AddTransaction registers a transaction touching asset together with its outputs
func (m *Mock) AddTransaction(asset models.Asset, tx models.Transaction, outputs ...models.UTxO) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[asset.ID("")] = append(m.transactions[asset.ID("")], tx)
	m.txOutputs[tx.Hash] = append(m.txOutputs[tx.Hash], outputs...)
}

// AddHolder registers an address as holding asset
func (m *Mock) AddHolder(asset models.Asset, holder models.AssetAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holders[asset.ID("")] = append(m.holders[asset.ID("")], holder)
}

func (m *Mock) fail(method string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Fail[method]
}

func (m *Mock) UTxOs(_ context.Context, address string, asset *models.Asset) ([]models.UTxO, error) {
	if err := m.fail("UTxOs"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.UTxO{}
	for _, u := range m.utxos[address] {
		if asset != nil && u.Balance(models.AssetToken(*asset)).Sign() == 0 {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *Mock) DatumValue(_ context.Context, datumHash string) (datum.Field, error) {
	if err := m.fail("DatumValue"); err != nil {
		return datum.Field{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.datums[datumHash]
	if !ok {
		return datum.Field{}, fmt.Errorf("datum %s: %w", datumHash, ErrNotFound)
	}
	return d, nil
}

func (m *Mock) AssetTransactions(_ context.Context, asset models.Asset) ([]models.Transaction, error) {
	if err := m.fail("AssetTransactions"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Transaction{}, m.transactions[asset.ID("")]...), nil
}

func (m *Mock) TransactionUTxOs(_ context.Context, txHash string) ([]models.UTxO, error) {
	if err := m.fail("TransactionUTxOs"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	outputs, ok := m.txOutputs[txHash]
	if !ok {
		return nil, fmt.Errorf("tx %s: %w", txHash, ErrNotFound)
	}
	return append([]models.UTxO{}, outputs...), nil
}

func (m *Mock) AssetAddresses(_ context.Context, asset models.Asset) ([]models.AssetAddress, error) {
	if err := m.fail("AssetAddresses"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.AssetAddress{}, m.holders[asset.ID("")]...), nil
}
