package datum

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/blinklabs-io/gouroboros/cbor"
)

var (
	ErrNoTemplate   = errors.New("no datum template loaded")
	ErrNotBuilt     = errors.New("datum has not been built")
	ErrShape        = errors.New("datum does not match template")
	ErrMissingParam = errors.New("datum parameter is not set")
)

// Builder binds DatumParameters to a template and back
type Builder struct {
	template *Field
	built    *Field
}

// NewBuilder returns an empty builder; call Load before Parse or Build
func NewBuilder() *Builder {
	return &Builder{}
}

// Load sets the template and discards any previously built datum
func (b *Builder) Load(template Field) {
	b.template = &template
	b.built = nil
}

// Parse walks value alongside the template and extracts every bound parameter
func (b *Builder) Parse(value Field) (models.DatumParameters, error) {
	if b.template == nil {
		return nil, ErrNoTemplate
	}

	out := models.DatumParameters{}
	if err := parseInto(*b.template, value, "$", out); err != nil {
		return nil, err
	}
	return out, nil
}

// Build fills the template placeholders from params
func (b *Builder) Build(params models.DatumParameters) error {
	if b.template == nil {
		return ErrNoTemplate
	}

	built, err := fill(*b.template, params)
	if err != nil {
		return err
	}
	b.built = &built
	return nil
}

// Built returns the last built datum
func (b *Builder) Built() (Field, error) {
	if b.built == nil {
		return Field{}, ErrNotBuilt
	}
	return *b.built, nil
}

// Serialize encodes the built datum as Plutus data CBOR
func (b *Builder) Serialize() ([]byte, error) {
	if b.built == nil {
		return nil, ErrNotBuilt
	}
	v, err := toCBORValue(*b.built)
	if err != nil {
		return nil, err
	}
	data, err := cbor.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode datum: %w", err)
	}
	return data, nil
}

// SerializeHex is Serialize encoded as hex
func (b *Builder) SerializeHex() (string, error) {
	data, err := b.Serialize()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

func parseInto(tpl, val Field, path string, out models.DatumParameters) error {
	if tpl.Optional && tpl.Kind != val.Kind {
		return nil
	}
	if tpl.Kind != val.Kind {
		return fmt.Errorf("%w at %s: want %s, got %s", ErrShape, path, tpl.Kind, val.Kind)
	}

	switch tpl.Kind {
	case KindConstr:
		if tpl.Param != "" {
			out[tpl.Param] = new(big.Int).SetUint64(val.Constructor)
		} else if tpl.Constructor != val.Constructor {
			return fmt.Errorf("%w at %s: want constructor %d, got %d", ErrShape, path, tpl.Constructor, val.Constructor)
		}
		return parseChildren(tpl, val, path, out)
	case KindList:
		return parseChildren(tpl, val, path, out)
	case KindInt:
		if tpl.Param != "" && val.Int != nil {
			out[tpl.Param] = new(big.Int).Set(val.Int)
		}
	case KindBytes:
		if tpl.Param != "" {
			out[tpl.Param] = val.Bytes
		}
	}
	return nil
}

func parseChildren(tpl, val Field, path string, out models.DatumParameters) error {
	if len(tpl.Fields) != len(val.Fields) {
		return fmt.Errorf("%w at %s: want %d fields, got %d", ErrShape, path, len(tpl.Fields), len(val.Fields))
	}
	for i := range tpl.Fields {
		if err := parseInto(tpl.Fields[i], val.Fields[i], fmt.Sprintf("%s[%d]", path, i), out); err != nil {
			return err
		}
	}
	return nil
}

func fill(tpl Field, params models.DatumParameters) (Field, error) {
	out := Field{Kind: tpl.Kind, Constructor: tpl.Constructor, Int: tpl.Int, Bytes: tpl.Bytes}

	switch tpl.Kind {
	case KindConstr, KindList:
		if tpl.Kind == KindConstr && tpl.Param != "" {
			v, ok := params.Int(tpl.Param)
			if !ok {
				return Field{}, fmt.Errorf("%w: %s", ErrMissingParam, tpl.Param)
			}
			if v.Sign() < 0 || !v.IsUint64() {
				return Field{}, fmt.Errorf("constructor index out of range for %s: %s", tpl.Param, v)
			}
			out.Constructor = v.Uint64()
		}
		out.Fields = make([]Field, 0, len(tpl.Fields))
		for _, child := range tpl.Fields {
			f, err := fill(child, params)
			if err != nil {
				return Field{}, err
			}
			out.Fields = append(out.Fields, f)
		}
	case KindInt:
		if tpl.Param != "" {
			v, ok := params.Int(tpl.Param)
			if !ok {
				return Field{}, fmt.Errorf("%w: %s", ErrMissingParam, tpl.Param)
			}
			out.Int = v
		}
	case KindBytes:
		if tpl.Param != "" {
			v, ok := params.String(tpl.Param)
			if !ok {
				return Field{}, fmt.Errorf("%w: %s", ErrMissingParam, tpl.Param)
			}
			if _, err := hex.DecodeString(v); err != nil {
				return Field{}, fmt.Errorf("parameter %s is not hex: %w", tpl.Param, err)
			}
			out.Bytes = strings.ToLower(v)
		}
	}
	return out, nil
}

func toCBORValue(f Field) (any, error) {
	switch f.Kind {
	case KindConstr:
		fields := make(cbor.IndefLengthList, 0, len(f.Fields))
		for _, child := range f.Fields {
			v, err := toCBORValue(child)
			if err != nil {
				return nil, err
			}
			fields = append(fields, v)
		}
		return cbor.NewConstructor(uint(f.Constructor), fields), nil
	case KindList:
		items := make(cbor.IndefLengthList, 0, len(f.Fields))
		for _, child := range f.Fields {
			v, err := toCBORValue(child)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case KindInt:
		if f.Int == nil {
			return int64(0), nil
		}
		if f.Int.IsInt64() {
			return f.Int.Int64(), nil
		}
		return f.Int, nil
	case KindBytes:
		b, err := hex.DecodeString(f.Bytes)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes %q: %w", f.Bytes, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported datum kind %s", f.Kind)
	}
}
