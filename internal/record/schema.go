package record

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tuannm99/novaschema/internal/alias/bx"
)

var (
	ErrMalformedSchema      = errors.New("record: malformed schema")
	ErrFieldIndexOutOfRange = errors.New("record: field index out of range")
	ErrFieldNotFound        = errors.New("record: field not found")
)

// FieldType is the type of one field. Len must be deterministic and
// non-negative. Implementations must be comparable: two types are the same
// type iff they are == to each other, and equal types must render the same
// String.
type FieldType interface {
	Len() int
	String() string
}

// Field is one column of a schema. Name may be empty.
type Field struct {
	Type FieldType
	Name string
}

func (f Field) String() string {
	return f.Type.String() + "(" + f.Name + ")"
}

// Schema describes the shape of a tuple: an ordered, immutable list of typed,
// optionally named fields. A *Schema is safe to share between goroutines.
type Schema struct {
	fields []Field
}

// NewSchema pairs types[i] with names[i]. Both slices are copied.
func NewSchema(types []FieldType, names []string) (*Schema, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrMalformedSchema)
	}
	if len(types) != len(names) {
		return nil, fmt.Errorf("%w: %d types but %d names", ErrMalformedSchema, len(types), len(names))
	}

	fields := make([]Field, len(types))
	for i, t := range types {
		if t == nil {
			return nil, fmt.Errorf("%w: field %d has no type", ErrMalformedSchema, i)
		}
		if t.Len() < 0 {
			return nil, fmt.Errorf("%w: field %d type %s has negative length", ErrMalformedSchema, i, t)
		}
		fields[i] = Field{Type: t, Name: names[i]}
	}
	return &Schema{fields: fields}, nil
}

// NewAnonymousSchema builds a schema whose fields all have empty names.
func NewAnonymousSchema(types []FieldType) (*Schema, error) {
	return NewSchema(types, make([]string, len(types)))
}

// MustSchema is NewSchema for fixtures and static schemas; it panics on error.
func MustSchema(types []FieldType, names []string) *Schema {
	s, err := NewSchema(types, names)
	if err != nil {
		panic(err)
	}
	return s
}

// Merge returns a new schema holding a's fields followed by b's. Both a and
// b must be non-nil; Merge panics otherwise.
func Merge(a, b *Schema) *Schema {
	fields := make([]Field, 0, len(a.fields)+len(b.fields))
	fields = append(fields, a.fields...)
	fields = append(fields, b.fields...)
	return &Schema{fields: fields}
}

func (s *Schema) NumFields() int { return len(s.fields) }

func (s *Schema) field(i int) (Field, error) {
	if i < 0 || i >= len(s.fields) {
		return Field{}, fmt.Errorf("%w: %d not in [0, %d)", ErrFieldIndexOutOfRange, i, len(s.fields))
	}
	return s.fields[i], nil
}

// FieldName returns the (possibly empty) name of the i-th field.
func (s *Schema) FieldName(i int) (string, error) {
	f, err := s.field(i)
	if err != nil {
		return "", err
	}
	return f.Name, nil
}

// FieldType returns the type of the i-th field.
func (s *Schema) FieldType(i int) (FieldType, error) {
	f, err := s.field(i)
	if err != nil {
		return nil, err
	}
	return f.Type, nil
}

// IndexOf returns the position of the first field named exactly name.
func (s *Schema) IndexOf(name string) (int, error) {
	for i, f := range s.fields {
		if f.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
}

// Size is the byte size of a tuple of this schema.
func (s *Schema) Size() int {
	size := 0
	for _, f := range s.fields {
		size += f.Type.Len()
	}
	return size
}

// FieldOffset is the byte offset of the i-th field inside an encoded tuple.
func (s *Schema) FieldOffset(i int) (int, error) {
	if _, err := s.field(i); err != nil {
		return 0, err
	}
	off := 0
	for _, f := range s.fields[:i] {
		off += f.Type.Len()
	}
	return off, nil
}

// Fields yields every field in declaration order.
func (s *Schema) Fields() iter.Seq2[int, Field] {
	return func(yield func(int, Field) bool) {
		for i, f := range s.fields {
			if !yield(i, f) {
				return
			}
		}
	}
}

// Types returns a copy of the field types in order.
func (s *Schema) Types() []FieldType {
	out := make([]FieldType, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Type
	}
	return out
}

// Names returns a copy of the field names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Equal reports whether o has the same number of fields as s and the same
// type at every position. Field names are not compared. A nil schema is
// never equal to anything.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return false
	}
	if len(s.fields) != len(o.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i].Type != o.fields[i].Type {
			return false
		}
	}
	return true
}

// Equals is Equal for values of unknown type. Anything that is not a schema
// compares unequal.
func (s *Schema) Equals(v any) bool {
	switch o := v.(type) {
	case *Schema:
		return s.Equal(o)
	case Schema:
		return s.Equal(&o)
	default:
		return false
	}
}

// Hash is a structural hash over the type sequence. Schemas that are Equal
// have the same Hash.
func (s *Schema) Hash() uint64 {
	d := xxhash.New()
	var b [8]byte
	bx.PutU64(b[:], uint64(len(s.fields)))
	_, _ = d.Write(b[:])
	for _, f := range s.fields {
		_, _ = d.WriteString(f.Type.String())
		bx.PutU64(b[:], uint64(f.Type.Len()))
		_, _ = d.Write(b[:])
	}
	return d.Sum64()
}

func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}
