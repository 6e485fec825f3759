package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// RawParam is a datum parameter as received over JSON
type RawParam json.RawMessage

func (p *RawParam) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// value returns a string for JSON strings and a *big.Int for JSON integers.
// Numbers are parsed from their literal text so large values keep full precision.
func (p RawParam) value() (any, error) {
	raw := bytes.TrimSpace(p)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty value")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	}

	n, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("expected a string or an integer, got %s", raw)
	}
	return n, nil
}

// toDatumParameters converts request params, reporting the first invalid key
func toDatumParameters(in map[string]RawParam) (models.DatumParameters, error) {
	out := make(models.DatumParameters, len(in))
	for k, raw := range in {
		v, err := raw.value()
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		out[models.DatumParameterKey(k)] = v
	}
	return out, nil
}
