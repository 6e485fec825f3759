package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/datum"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPolicy = "de9b756719341e79785aa13c164e7fe68c189ed04d61c9876b2fe53f"
	testName   = "4d7565736c69537761705f414d4d"
)

func newTestClient(t *testing.T, h http.Handler) *Blockfrost {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewBlockfrost(BlockfrostConfig{
		BaseURL:           srv.URL,
		ProjectID:         "mainnet-test",
		Timeout:           2 * time.Second,
		MaxRetries:        2,
		RetryBackoff:      time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             1000,
		Logger:            logger,
	})
}

func TestBlockfrost_UTxOs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mainnet-test", r.Header.Get("project_id"))
		assert.Equal(t, "/addresses/addr1pool/utxos/"+testPolicy+testName, r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		fmt.Fprint(w, `[{
			"address": "addr1pool",
			"tx_hash": "abc",
			"output_index": 1,
			"amount": [
				{"unit": "lovelace", "quantity": "2000000"},
				{"unit": "`+testPolicy+testName+`", "quantity": "1"}
			],
			"data_hash": "d1",
			"inline_datum": null
		}]`)
	}))

	asset := models.NewAsset(testPolicy, testName, 0)
	utxos, err := c.UTxOs(context.Background(), "addr1pool", &asset)
	require.NoError(t, err)
	require.Len(t, utxos, 1)

	u := utxos[0]
	assert.Equal(t, "abc", u.TxHash)
	assert.Equal(t, 1, u.OutputIndex)
	assert.Equal(t, "d1", u.DatumHash)
	assert.Equal(t, int64(2_000_000), u.Balance(models.LovelaceToken()).Int64())
	assert.Equal(t, int64(1), u.Balance(models.AssetToken(asset)).Int64())
}

func TestBlockfrost_UTxOsNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"status_code":404,"error":"Not Found","message":"The requested component has not been found."}`)
	}))

	utxos, err := c.UTxOs(context.Background(), "addr1empty", nil)
	require.NoError(t, err)
	assert.Empty(t, utxos)
}

func TestBlockfrost_Pagination(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := pageSize
		if r.URL.Query().Get("page") == "2" {
			n = 3
		}
		w.Write([]byte("["))
		for i := 0; i < n; i++ {
			if i > 0 {
				w.Write([]byte(","))
			}
			fmt.Fprintf(w, `{"address":"addr%d","quantity":"1"}`, i)
		}
		w.Write([]byte("]"))
	}))

	holders, err := c.AssetAddresses(context.Background(), models.NewAsset(testPolicy, testName, 0))
	require.NoError(t, err)
	assert.Len(t, holders, pageSize+3)
}

func TestBlockfrost_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"json_value":{"constructor":0,"fields":[{"int":42}]}}`)
	}))

	d, err := c.DatumValue(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, datum.KindConstr, d.Kind)
	assert.Equal(t, int64(42), d.Fields[0].Int.Int64())
}

func TestBlockfrost_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"status_code":403,"error":"Forbidden","message":"Invalid project token."}`)
	}))

	_, err := c.TransactionUTxOs(context.Background(), "tx1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBlockfrost_TransactionUTxOsSkipsCollateral(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/txs/tx1/utxos", r.URL.Path)
		fmt.Fprint(w, `{"hash":"tx1","outputs":[
			{"address":"addr1pool","amount":[{"unit":"lovelace","quantity":"5"}],"output_index":0,"data_hash":"d1","collateral":false},
			{"address":"addr1change","amount":[{"unit":"lovelace","quantity":"7"}],"output_index":1,"data_hash":null,"collateral":true}
		]}`)
	}))

	utxos, err := c.TransactionUTxOs(context.Background(), "tx1")
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	assert.Equal(t, "addr1pool", utxos[0].Address)
	assert.Equal(t, "tx1", utxos[0].TxHash)
}

func TestBlockfrost_AssetTransactions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"tx_hash":"tx1","tx_index":0,"block_height":100,"block_time":1700000000}]`)
	}))

	txs, err := c.AssetTransactions(context.Background(), models.NewAsset(testPolicy, testName, 0))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "tx1", txs[0].Hash)
	assert.Equal(t, uint64(100), txs[0].BlockHeight)
	assert.Equal(t, int64(1700000000), txs[0].BlockTime.Unix())
}
