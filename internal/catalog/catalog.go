package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tuannm99/novaschema/internal/record"
	"github.com/tuannm99/novaschema/internal/types"
)

var (
	ErrTableNotFound     = errors.New("catalog: table not found")
	ErrInvalidTableName  = errors.New("catalog: invalid table name")
	ErrInvalidPrimaryKey = errors.New("catalog: primary key is not a field of the schema")
	ErrNilSchema         = errors.New("catalog: nil schema")
	ErrUnsupportedType   = errors.New("catalog: field type cannot be persisted")
)

// TableMeta is the catalog entry for one table. Schema is shared, never copied.
type TableMeta struct {
	ID         uuid.UUID
	Name       string
	PrimaryKey string
	Schema     *record.Schema
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Catalog maps table names to schemas and indexes tables by schema shape.
// It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	tables  map[string]*TableMeta
	byShape map[uint64][]string // Schema.Hash() -> table names
}

func New() *Catalog {
	return &Catalog{
		tables:  make(map[string]*TableMeta),
		byShape: make(map[uint64][]string),
	}
}

// AddTable registers a table. A table with the same name is replaced; its ID
// and creation time are kept.
func (c *Catalog) AddTable(name string, desc *record.Schema, pkey string) (*TableMeta, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	if desc == nil {
		return nil, ErrNilSchema
	}
	if err := checkPersistable(desc); err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}
	if err := checkPrimaryKey(desc, pkey); err != nil {
		return nil, err
	}

	now := time.Now()
	meta := &TableMeta{
		ID:         uuid.New(),
		Name:       name,
		PrimaryKey: pkey,
		Schema:     desc,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.tables[name]; ok {
		meta.ID = old.ID
		meta.CreatedAt = old.CreatedAt
		c.unindexLocked(old)
		slog.Debug("catalog: replacing table", "name", name, "old", old.Schema.String(), "new", desc.String())
	}
	c.insertLocked(meta)

	out := *meta
	return &out, nil
}

// checkPersistable rejects schemas that Save could write but Load could not
// read back: no fields, or a field type other than a valid types.Type.
func checkPersistable(desc *record.Schema) error {
	if desc.NumFields() == 0 {
		return fmt.Errorf("%w: no fields", record.ErrMalformedSchema)
	}
	for i, f := range desc.Fields() {
		if t, ok := f.Type.(types.Type); !ok || !t.Valid() {
			return fmt.Errorf("%w: field %d (%s) has type %s", ErrUnsupportedType, i, f.Name, f.Type)
		}
	}
	return nil
}

func checkPrimaryKey(desc *record.Schema, pkey string) error {
	if pkey == "" {
		return nil
	}
	if _, err := desc.IndexOf(pkey); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPrimaryKey, err)
	}
	return nil
}

// insertLocked stores meta as-is. Callers hold c.mu.
func (c *Catalog) insertLocked(meta *TableMeta) {
	c.tables[meta.Name] = meta
	h := meta.Schema.Hash()
	c.byShape[h] = append(c.byShape[h], meta.Name)
}

func (c *Catalog) unindexLocked(meta *TableMeta) {
	h := meta.Schema.Hash()
	names := slices.DeleteFunc(c.byShape[h], func(n string) bool { return n == meta.Name })
	if len(names) == 0 {
		delete(c.byShape, h)
		return
	}
	c.byShape[h] = names
}

func (c *Catalog) RemoveTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta, ok := c.tables[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	c.unindexLocked(meta)
	delete(c.tables, name)
	return nil
}

func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]*TableMeta)
	c.byShape = make(map[uint64][]string)
}

// Table returns a copy of the entry for name.
func (c *Catalog) Table(name string) (*TableMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	meta, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	out := *meta
	return &out, nil
}

func (c *Catalog) Schema(name string) (*record.Schema, error) {
	meta, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	return meta.Schema, nil
}

func (c *Catalog) PrimaryKey(name string) (string, error) {
	meta, err := c.Table(name)
	if err != nil {
		return "", err
	}
	return meta.PrimaryKey, nil
}

// TableNames returns every table name in sorted order.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Compatible reports whether two tables have equal schemas (same field
// types in the same order; names are not compared).
func (c *Catalog) Compatible(a, b string) (bool, error) {
	sa, err := c.Schema(a)
	if err != nil {
		return false, err
	}
	sb, err := c.Schema(b)
	if err != nil {
		return false, err
	}
	return sa.Equal(sb), nil
}

// FindByShape returns, sorted, the tables whose schema is Equal to desc.
func (c *Catalog) FindByShape(desc *record.Schema) []string {
	if desc == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, name := range c.byShape[desc.Hash()] {
		// hash buckets may collide; Equal is authoritative
		if c.tables[name].Schema.Equal(desc) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
