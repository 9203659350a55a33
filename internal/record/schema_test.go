package record

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuannm99/novaschema/internal/types"
)

// rawType is a FieldType with an arbitrary length, used for edge cases.
type rawType int

func (r rawType) Len() int       { return int(r) }
func (r rawType) String() string { return "RAW" }

func ft(ts ...types.Type) []FieldType {
	out := make([]FieldType, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

// makeTestSchema builds a simple schema used across tests.
func makeTestSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema(
		ft(types.Int32, types.Int64, types.Bool, types.Text),
		[]string{"id", "balance", "active", "name"},
	)
	require.NoError(t, err)
	return s
}

func TestNewSchema(t *testing.T) {
	typs := ft(types.Int32, types.Text, types.Float64)
	names := []string{"a", "b", "c"}

	s, err := NewSchema(typs, names)
	require.NoError(t, err)
	require.Equal(t, 3, s.NumFields())

	for i := range typs {
		got, err := s.FieldType(i)
		require.NoError(t, err)
		require.Equal(t, typs[i], got)

		name, err := s.FieldName(i)
		require.NoError(t, err)
		require.Equal(t, names[i], name)
	}
}

func TestNewSchema_CopiesInput(t *testing.T) {
	typs := ft(types.Int32, types.Int32)
	names := []string{"x", "y"}
	s, err := NewSchema(typs, names)
	require.NoError(t, err)

	typs[0] = types.Text
	names[0] = "changed"

	got, _ := s.FieldType(0)
	require.Equal(t, types.Int32, got)
	name, _ := s.FieldName(0)
	require.Equal(t, "x", name)
}

func TestNewSchema_Malformed(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		_, err := NewSchema(ft(types.Int32, types.Int32), []string{"only-one"})
		require.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewSchema(nil, nil)
		require.ErrorIs(t, err, ErrMalformedSchema)

		_, err = NewAnonymousSchema([]FieldType{})
		require.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("nil type", func(t *testing.T) {
		_, err := NewSchema([]FieldType{types.Int32, nil}, []string{"a", "b"})
		require.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("negative length", func(t *testing.T) {
		_, err := NewAnonymousSchema([]FieldType{rawType(-1)})
		require.ErrorIs(t, err, ErrMalformedSchema)
	})

	t.Run("must panics", func(t *testing.T) {
		require.Panics(t, func() { MustSchema(nil, nil) })
	})
}

func TestNewAnonymousSchema(t *testing.T) {
	s, err := NewAnonymousSchema(ft(types.Int32, types.Bool))
	require.NoError(t, err)
	require.Equal(t, 2, s.NumFields())
	require.Equal(t, []string{"", ""}, s.Names())

	idx, err := s.IndexOf("")
	require.NoError(t, err)
	require.Equal(t, 0, idx)
}

func TestAccessors_OutOfRange(t *testing.T) {
	s := MustSchema(ft(types.Int32, types.Text), []string{"x", "y"})

	for _, i := range []int{-1, 2, 5} {
		_, err := s.FieldType(i)
		require.ErrorIs(t, err, ErrFieldIndexOutOfRange)

		_, err = s.FieldName(i)
		require.ErrorIs(t, err, ErrFieldIndexOutOfRange)

		_, err = s.FieldOffset(i)
		require.ErrorIs(t, err, ErrFieldIndexOutOfRange)
	}
}

func TestIndexOf(t *testing.T) {
	s := MustSchema(ft(types.Int32, types.Text, types.Int64), []string{"x", "y", "x"})

	idx, err := s.IndexOf("x")
	require.NoError(t, err)
	require.Equal(t, 0, idx, "first match wins")

	idx, err = s.IndexOf("y")
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	_, err = s.IndexOf("z")
	require.ErrorIs(t, err, ErrFieldNotFound)

	_, err = s.IndexOf("X")
	require.ErrorIs(t, err, ErrFieldNotFound, "matching is case-sensitive")
}

func TestSizeAndOffsets(t *testing.T) {
	s := MustSchema(ft(types.Int32, types.Int64), []string{"a", "b"})
	require.Equal(t, 12, s.Size())
	require.Equal(t, 12, s.Size(), "size is stable")

	s = makeTestSchema(t)
	require.Equal(t, 4+8+1+4+types.StringLen, s.Size())

	want := []int{0, 4, 12, 13}
	for i, w := range want {
		off, err := s.FieldOffset(i)
		require.NoError(t, err)
		require.Equal(t, w, off)
	}

	zero := MustSchema([]FieldType{rawType(0), rawType(0)}, []string{"", ""})
	require.Equal(t, 0, zero.Size())
}

func TestFields(t *testing.T) {
	s := makeTestSchema(t)

	var names []string
	for i, f := range s.Fields() {
		require.Equal(t, len(names), i)
		names = append(names, f.Name)
	}
	require.Equal(t, s.Names(), names)

	t.Run("restartable", func(t *testing.T) {
		n := 0
		for range s.Fields() {
			n++
		}
		require.Equal(t, s.NumFields(), n)
	})

	t.Run("early stop", func(t *testing.T) {
		n := 0
		for range s.Fields() {
			n++
			break
		}
		require.Equal(t, 1, n)
	})

	t.Run("concurrent readers", func(t *testing.T) {
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sum := 0
				for _, f := range s.Fields() {
					sum += f.Type.Len()
				}
				assert.Equal(t, s.Size(), sum)
			}()
		}
		wg.Wait()
	})
}

func TestTypesAndNamesAreCopies(t *testing.T) {
	s := makeTestSchema(t)

	ts := s.Types()
	ts[0] = types.Bytes
	got, _ := s.FieldType(0)
	require.Equal(t, types.Int32, got)

	ns := s.Names()
	ns[0] = "mutated"
	name, _ := s.FieldName(0)
	require.Equal(t, "id", name)
}

func TestMerge(t *testing.T) {
	a := MustSchema(ft(types.Int32, types.Text), []string{"id", "name"})
	b := MustSchema(ft(types.Float64), []string{"score"})

	m := Merge(a, b)
	require.Equal(t, a.NumFields()+b.NumFields(), m.NumFields())
	require.Equal(t, []string{"id", "name", "score"}, m.Names())

	for i := 0; i < m.NumFields(); i++ {
		got, err := m.FieldType(i)
		require.NoError(t, err)

		var want FieldType
		if i < a.NumFields() {
			want, _ = a.FieldType(i)
		} else {
			want, _ = b.FieldType(i - a.NumFields())
		}
		require.Equal(t, want, got)
	}
	require.Equal(t, a.Size()+b.Size(), m.Size())

	// inputs untouched
	require.Equal(t, 2, a.NumFields())
	require.Equal(t, 1, b.NumFields())

	self := Merge(a, a)
	require.Equal(t, 4, self.NumFields())
	require.Equal(t, 2, a.NumFields())

	require.Panics(t, func() { Merge(nil, b) })
	require.Panics(t, func() { Merge(a, nil) })
}

func TestEqual(t *testing.T) {
	x := MustSchema(ft(types.Int32), []string{"x"})
	y := MustSchema(ft(types.Int32), []string{"y"})
	z := MustSchema(ft(types.Int32), []string{"z"})
	anon, _ := NewAnonymousSchema(ft(types.Int32))

	t.Run("names ignored", func(t *testing.T) {
		require.True(t, x.Equal(y))
		require.True(t, x.Equal(anon))
	})

	t.Run("reflexive symmetric transitive", func(t *testing.T) {
		require.True(t, x.Equal(x))
		require.True(t, y.Equal(x))
		require.True(t, x.Equal(y) && y.Equal(z) && x.Equal(z))
	})

	t.Run("different types or count", func(t *testing.T) {
		str := MustSchema(ft(types.Text), []string{"x"})
		require.False(t, x.Equal(str))

		two := MustSchema(ft(types.Int32, types.Int32), []string{"x", "y"})
		require.False(t, x.Equal(two))
		require.False(t, two.Equal(x))

		swapped1 := MustSchema(ft(types.Int32, types.Text), []string{"a", "b"})
		swapped2 := MustSchema(ft(types.Text, types.Int32), []string{"a", "b"})
		require.False(t, swapped1.Equal(swapped2))
	})

	t.Run("nil and non-schema values", func(t *testing.T) {
		require.False(t, x.Equal(nil))
		require.False(t, (*Schema)(nil).Equal(x))
		require.False(t, x.Equals(nil))
		require.False(t, x.Equals("INT32(x)"))
		require.False(t, x.Equals(42))
		require.True(t, x.Equals(y))
		require.True(t, x.Equals(*y))
	})
}

func TestHash(t *testing.T) {
	x := MustSchema(ft(types.Int32, types.Text), []string{"x", "name"})
	y := MustSchema(ft(types.Int32, types.Text), []string{"y", ""})
	require.True(t, x.Equal(y))
	require.Equal(t, x.Hash(), y.Hash())
	require.Equal(t, x.Hash(), x.Hash())

	swapped := MustSchema(ft(types.Text, types.Int32), []string{"x", "name"})
	require.NotEqual(t, x.Hash(), swapped.Hash())

	merged := Merge(x, y)
	rebuilt := MustSchema(ft(types.Int32, types.Text, types.Int32, types.Text), []string{"", "", "", ""})
	require.Equal(t, merged.Hash(), rebuilt.Hash())

	// lengths past 32 bits still feed the hash
	small := MustSchema([]FieldType{rawType(0)}, []string{""})
	wide := MustSchema([]FieldType{rawType(1 << 32)}, []string{""})
	require.NotEqual(t, small.Hash(), wide.Hash())

	byHash := map[uint64]*Schema{x.Hash(): x}
	got, ok := byHash[y.Hash()]
	require.True(t, ok)
	require.True(t, got.Equal(y))
}

func TestString(t *testing.T) {
	s := MustSchema(ft(types.Int32, types.Text), []string{"id", ""})
	require.Equal(t, "INT32(id), TEXT()", s.String())
	require.Equal(t, s.String(), s.String())
}
