package tuple

import (
	"errors"
	"fmt"
	"math"

	"github.com/tuannm99/novaschema/internal/alias/bx"
	"github.com/tuannm99/novaschema/internal/record"
	"github.com/tuannm99/novaschema/internal/types"
)

// ---- Errors ----
var (
	ErrSchemaMismatch  = errors.New("tuple: schema/values mismatch")
	ErrBadBuffer       = errors.New("tuple: buffer size does not match schema")
	ErrVarTooLong      = errors.New("tuple: variable length exceeds field width")
	ErrUnsupportedType = errors.New("tuple: unsupported field type")
)

// ---- Encode(t) -> []byte ----
// Format: fixed width, exactly Schema().Size() bytes.
// Field i starts at Schema().FieldOffset(i).
// TEXT/BYTES: u32 length (LE) + payload zero-padded to types.StringLen.
func Encode(t *Tuple) ([]byte, error) {
	out := make([]byte, t.desc.Size())

	off := 0
	for i, f := range t.desc.Fields() {
		typ, ok := f.Type.(types.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, f.Type)
		}
		if v := t.values[i]; v != nil {
			if err := putField(out, off, typ, v); err != nil {
				return nil, err
			}
		}
		off += typ.Len()
	}
	return out, nil
}

func putField(out []byte, off int, typ types.Type, v any) error {
	switch typ {
	case types.Int32:
		bx.PutI32At(out, off, v.(int32))
	case types.Int64:
		bx.PutI64At(out, off, v.(int64))
	case types.Bool:
		if v.(bool) {
			out[off] = 1
		}
	case types.Float64:
		bx.PutF64At(out, off, v.(float64))
	case types.Text:
		return putVar(out, off, []byte(v.(string)))
	case types.Bytes:
		return putVar(out, off, v.([]byte))
	default:
		return ErrUnsupportedType
	}
	return nil
}

func putVar(out []byte, off int, bs []byte) error {
	if len(bs) > types.StringLen {
		return ErrVarTooLong
	}
	bx.PutU32At(out, off, uint32(len(bs)))
	copy(out[off+4:], bs)
	return nil
}

// ---- Decode(desc, buf) -> *Tuple ----
func Decode(desc *record.Schema, buf []byte) (*Tuple, error) {
	if len(buf) != desc.Size() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadBuffer, len(buf), desc.Size())
	}

	t := New(desc)
	off := 0
	for i, f := range desc.Fields() {
		typ, ok := f.Type.(types.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, f.Type)
		}

		switch typ {
		case types.Int32:
			t.values[i] = bx.I32At(buf, off)
		case types.Int64:
			t.values[i] = bx.I64At(buf, off)
		case types.Bool:
			t.values[i] = buf[off] != 0
		case types.Float64:
			t.values[i] = bx.F64At(buf, off)
		case types.Text, types.Bytes:
			l := int(bx.U32At(buf, off))
			if l > types.StringLen {
				return nil, fmt.Errorf("%w: field %d length prefix %d", ErrBadBuffer, i, l)
			}
			data := buf[off+4 : off+4+l]
			if typ == types.Text {
				t.values[i] = string(data) // UTF-8
			} else {
				// make a copy to avoid aliasing the page buffer
				cp := make([]byte, l)
				copy(cp, data)
				t.values[i] = cp
			}
		default:
			return nil, ErrUnsupportedType
		}
		off += typ.Len()
	}
	return t, nil
}

// normalize converts v to the canonical Go type stored for ft.
func normalize(ft record.FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	typ, ok := ft.(types.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ft)
	}

	switch typ {
	case types.Int32:
		if x, ok := asInt32(v); ok {
			return x, nil
		}
	case types.Int64:
		if x, ok := asInt64(v); ok {
			return x, nil
		}
	case types.Bool:
		if x, ok := v.(bool); ok {
			return x, nil
		}
	case types.Float64:
		if x, ok := asFloat64(v); ok {
			return x, nil
		}
	case types.Text:
		if x, ok := v.(string); ok {
			if len(x) > types.StringLen {
				return nil, ErrVarTooLong
			}
			return x, nil
		}
	case types.Bytes:
		if x, ok := v.([]byte); ok {
			if len(x) > types.StringLen {
				return nil, ErrVarTooLong
			}
			cp := make([]byte, len(x))
			copy(cp, x)
			return cp, nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, typ)
	}
	return nil, fmt.Errorf("%w: %T is not %s", ErrSchemaMismatch, v, typ)
}

// ---- small helpers to accept multiple numeric types on encode ----
func asInt32(v any) (int32, bool) {
	switch x := v.(type) {
	case int32:
		return x, true
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x), true
		}
	case int64:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x), true
		}
	}
	return 0, false
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	return 0, false
}
