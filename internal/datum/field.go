package datum

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
)

// Kind is the Plutus data shape of a Field
type Kind uint8

const (
	KindConstr Kind = iota
	KindInt
	KindBytes
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindConstr:
		return "constructor"
	case KindInt:
		return "int"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Field is a node of Plutus data. In a template, Param binds the node value
// (or, for constructors, the constructor index) to a datum parameter.
type Field struct {
	Kind        Kind
	Constructor uint64
	Fields      []Field
	Int         *big.Int
	Bytes       string
	Param       models.DatumParameterKey
	Optional    bool // parsing leaves Param unset instead of failing on a shape mismatch
}

// Constr creates a constructor node
func Constr(index uint64, fields ...Field) Field {
	return Field{Kind: KindConstr, Constructor: index, Fields: fields}
}

// ConstrParam creates a constructor node whose index is read from / written to key
func ConstrParam(key models.DatumParameterKey, fields ...Field) Field {
	return Field{Kind: KindConstr, Fields: fields, Param: key}
}

// Int creates an integer literal
func Int(v int64) Field {
	return Field{Kind: KindInt, Int: big.NewInt(v)}
}

// BigInt creates an integer literal from a big.Int
func BigInt(v *big.Int) Field {
	return Field{Kind: KindInt, Int: new(big.Int).Set(v)}
}

// IntParam creates an integer placeholder
func IntParam(key models.DatumParameterKey) Field {
	return Field{Kind: KindInt, Param: key}
}

// OptionalIntParam is IntParam that tolerates any value shape when parsing
func OptionalIntParam(key models.DatumParameterKey) Field {
	return Field{Kind: KindInt, Param: key, Optional: true}
}

// Bytes creates a byte string literal from hex
func Bytes(hexValue string) Field {
	return Field{Kind: KindBytes, Bytes: strings.ToLower(hexValue)}
}

// BytesParam creates a byte string placeholder
func BytesParam(key models.DatumParameterKey) Field {
	return Field{Kind: KindBytes, Param: key}
}

// List creates a list node
func List(items ...Field) Field {
	return Field{Kind: KindList, Fields: items}
}

// FromJSON decodes Plutus data in the detailed JSON schema used by ledger indexers:
// {"constructor":0,"fields":[...]}, {"int":1}, {"bytes":"ab"}, {"list":[...]}
func FromJSON(data []byte) (Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Field{}, fmt.Errorf("failed to decode datum json: %w", err)
	}
	return fromValue(raw)
}

func fromValue(raw any) (Field, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Field{}, fmt.Errorf("datum node must be an object, got %T", raw)
	}

	if c, ok := obj["constructor"]; ok {
		index, err := toUint(c)
		if err != nil {
			return Field{}, fmt.Errorf("invalid constructor: %w", err)
		}
		items, _ := obj["fields"].([]any)
		fields, err := fromValues(items)
		if err != nil {
			return Field{}, err
		}
		return Constr(index, fields...), nil
	}

	if v, ok := obj["int"]; ok {
		n, ok := v.(json.Number)
		if !ok {
			return Field{}, fmt.Errorf("invalid int: %v", v)
		}
		i, ok := new(big.Int).SetString(n.String(), 10)
		if !ok {
			return Field{}, fmt.Errorf("invalid int: %s", n)
		}
		return Field{Kind: KindInt, Int: i}, nil
	}

	if v, ok := obj["bytes"]; ok {
		s, ok := v.(string)
		if !ok {
			return Field{}, fmt.Errorf("invalid bytes: %v", v)
		}
		if _, err := hex.DecodeString(s); err != nil {
			return Field{}, fmt.Errorf("invalid bytes: %w", err)
		}
		return Bytes(s), nil
	}

	if v, ok := obj["list"]; ok {
		items, ok := v.([]any)
		if !ok {
			return Field{}, fmt.Errorf("invalid list: %v", v)
		}
		fields, err := fromValues(items)
		if err != nil {
			return Field{}, err
		}
		return List(fields...), nil
	}

	if _, ok := obj["map"]; ok {
		return Field{}, fmt.Errorf("map datums are not supported")
	}

	return Field{}, fmt.Errorf("unknown datum node: %v", obj)
}

func fromValues(items []any) ([]Field, error) {
	out := make([]Field, 0, len(items))
	for i, item := range items {
		f, err := fromValue(item)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func toUint(v any) (uint64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("not a number: %v", v)
	}
	i, ok := new(big.Int).SetString(n.String(), 10)
	if !ok || i.Sign() < 0 || !i.IsUint64() {
		return 0, fmt.Errorf("out of range: %s", n)
	}
	return i.Uint64(), nil
}
