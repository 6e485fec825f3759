package provider

import (
	"encoding/json"
	"fmt"
)

type amount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

type addressUTxO struct {
	Address     string   `json:"address"`
	TxHash      string   `json:"tx_hash"`
	OutputIndex int      `json:"output_index"`
	Amount      []amount `json:"amount"`
	DataHash    *string  `json:"data_hash"`
	InlineDatum *string  `json:"inline_datum"`
}

type txUTxOs struct {
	Hash    string     `json:"hash"`
	Outputs []txOutput `json:"outputs"`
}

type txOutput struct {
	Address     string   `json:"address"`
	Amount      []amount `json:"amount"`
	OutputIndex int      `json:"output_index"`
	DataHash    *string  `json:"data_hash"`
	Collateral  bool     `json:"collateral"`
}

type assetTransaction struct {
	TxHash      string `json:"tx_hash"`
	TxIndex     int    `json:"tx_index"`
	BlockHeight uint64 `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

type assetAddress struct {
	Address  string `json:"address"`
	Quantity string `json:"quantity"`
}

type datumValue struct {
	JSONValue json.RawMessage `json:"json_value"`
}

// APIError is the error body returned by Blockfrost
type APIError struct {
	StatusCode int    `json:"status_code"`
	Kind       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("blockfrost http %d", e.StatusCode)
	}
	return fmt.Sprintf("blockfrost http %d: %s", e.StatusCode, e.Message)
}
