package tuple

import (
	"fmt"
	"strings"

	"github.com/tuannm99/novaschema/internal/record"
)

// Tuple is one row: a shared, read-only schema plus one value per field.
// Unset fields hold nil and encode as zero bytes.
type Tuple struct {
	desc   *record.Schema
	values []any
}

func New(desc *record.Schema) *Tuple {
	return &Tuple{
		desc:   desc,
		values: make([]any, desc.NumFields()),
	}
}

// FromValues builds a tuple and sets every field in order.
func FromValues(desc *record.Schema, values ...any) (*Tuple, error) {
	if len(values) != desc.NumFields() {
		return nil, fmt.Errorf("%w: %d values for %d fields", ErrSchemaMismatch, len(values), desc.NumFields())
	}
	t := New(desc)
	for i, v := range values {
		if err := t.SetField(i, v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tuple) Schema() *record.Schema { return t.desc }

// SetField stores v in field i after converting it to the field's Go type.
func (t *Tuple) SetField(i int, v any) error {
	ft, err := t.desc.FieldType(i)
	if err != nil {
		return err
	}
	name, _ := t.desc.FieldName(i)
	nv, err := normalize(ft, v)
	if err != nil {
		return fmt.Errorf("field %d (%s): %w", i, name, err)
	}
	t.values[i] = nv
	return nil
}

func (t *Tuple) Field(i int) (any, error) {
	if _, err := t.desc.FieldType(i); err != nil {
		return nil, err
	}
	return t.values[i], nil
}

// Values returns a copy of the field values.
func (t *Tuple) Values() []any {
	out := make([]any, len(t.values))
	copy(out, t.values)
	return out
}

// String joins the field values with tabs.
func (t *Tuple) String() string {
	parts := make([]string, len(t.values))
	for i, v := range t.values {
		switch x := v.(type) {
		case nil:
			parts[i] = "null"
		case []byte:
			parts[i] = fmt.Sprintf("%x", x)
		default:
			parts[i] = fmt.Sprint(x)
		}
	}
	return strings.Join(parts, "\t")
}
