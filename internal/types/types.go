package types

import (
	"errors"
	"fmt"
	"strings"
)

// StringLen is the fixed payload width reserved for TEXT and BYTES fields.
// Values are stored as a u32 length prefix followed by StringLen bytes.
const StringLen = 128

var ErrUnknownType = errors.New("types: unknown field type")

// Type is a fixed-width field type. Every value of a given Type occupies
// exactly Len() bytes inside an encoded tuple.
type Type uint8

const (
	Int32 Type = iota
	Int64
	Bool
	Float64
	Text  // UTF-8, at most StringLen bytes
	Bytes // opaque, at most StringLen bytes
)

var typeNames = [...]string{
	Int32:   "INT32",
	Int64:   "INT64",
	Bool:    "BOOL",
	Float64: "FLOAT64",
	Text:    "TEXT",
	Bytes:   "BYTES",
}

// aliases accepted by Parse in addition to the canonical names.
var typeAliases = map[string]Type{
	"INT":     Int32,
	"INTEGER": Int32,
	"BIGINT":  Int64,
	"BOOLEAN": Bool,
	"DOUBLE":  Float64,
	"STRING":  Text,
	"VARCHAR": Text,
	"BLOB":    Bytes,
}

// Len returns the serialized byte length of a value of this type.
func (t Type) Len() int {
	switch t {
	case Int32:
		return 4
	case Int64, Float64:
		return 8
	case Bool:
		return 1
	case Text, Bytes:
		return 4 + StringLen
	default:
		return 0
	}
}

func (t Type) Valid() bool { return int(t) < len(typeNames) }

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TYPE(%d)", uint8(t))
	}
	return typeNames[t]
}

// Parse resolves a type name (case-insensitive) to a Type.
func Parse(name string) (Type, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range typeNames {
		if n == upper {
			return Type(i), nil
		}
	}
	if t, ok := typeAliases[upper]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// MustParse is Parse for static type names; it panics on error.
func MustParse(name string) Type {
	t, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return t
}
