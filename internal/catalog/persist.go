package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-msgpack/codec"
	"golang.org/x/sync/errgroup"

	"github.com/tuannm99/novaschema/internal/record"
	"github.com/tuannm99/novaschema/internal/types"
)

var (
	ErrUnknownFormat  = errors.New("catalog: unknown meta format")
	ErrDuplicateTable = errors.New("catalog: table defined by more than one meta file")
)

// Format selects the on-disk encoding of table meta files.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) ext() string { return ".meta." + string(f) }

// metaFile is the persisted form of a TableMeta.
type metaFile struct {
	ID         string       `json:"id" codec:"id"`
	Name       string       `json:"name" codec:"name"`
	PrimaryKey string       `json:"primary_key,omitempty" codec:"primary_key"`
	Columns    []columnMeta `json:"columns" codec:"columns"`
	CreatedAt  string       `json:"created_at" codec:"created_at"`
	UpdatedAt  string       `json:"updated_at" codec:"updated_at"`
}

type columnMeta struct {
	Name string `json:"name" codec:"name"`
	Type string `json:"type" codec:"type"`
}

func toMetaFile(m *TableMeta) metaFile {
	mf := metaFile{
		ID:         m.ID.String(),
		Name:       m.Name,
		PrimaryKey: m.PrimaryKey,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:  m.UpdatedAt.Format(time.RFC3339Nano),
	}
	for _, f := range m.Schema.Fields() {
		mf.Columns = append(mf.Columns, columnMeta{Name: f.Name, Type: f.Type.String()})
	}
	return mf
}

// fromMetaFile rebuilds the schema through record.NewSchema so a damaged file
// cannot produce a ragged or empty descriptor.
func fromMetaFile(mf metaFile) (*TableMeta, error) {
	fts := make([]record.FieldType, len(mf.Columns))
	names := make([]string, len(mf.Columns))
	for i, col := range mf.Columns {
		t, err := types.Parse(col.Type)
		if err != nil {
			return nil, fmt.Errorf("table %q column %d: %w", mf.Name, i, err)
		}
		fts[i] = t
		names[i] = col.Name
	}
	desc, err := record.NewSchema(fts, names)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", mf.Name, err)
	}
	if err := checkPrimaryKey(desc, mf.PrimaryKey); err != nil {
		return nil, fmt.Errorf("table %q: %w", mf.Name, err)
	}

	id, err := uuid.Parse(mf.ID)
	if err != nil {
		return nil, fmt.Errorf("table %q id: %w", mf.Name, err)
	}
	created, err := time.Parse(time.RFC3339Nano, mf.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("table %q created_at: %w", mf.Name, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, mf.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("table %q updated_at: %w", mf.Name, err)
	}

	return &TableMeta{
		ID:         id,
		Name:       mf.Name,
		PrimaryKey: mf.PrimaryKey,
		Schema:     desc,
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

func encodeMeta(f Format, m *TableMeta) ([]byte, error) {
	mf := toMetaFile(m)
	switch f {
	case FormatJSON:
		return json.MarshalIndent(mf, "", "  ")
	case FormatMsgpack:
		var out []byte
		enc := codec.NewEncoderBytes(&out, new(codec.MsgpackHandle))
		if err := enc.Encode(mf); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func decodeMeta(f Format, data []byte) (*TableMeta, error) {
	var mf metaFile
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &mf); err != nil {
			return nil, err
		}
	case FormatMsgpack:
		dec := codec.NewDecoderBytes(data, new(codec.MsgpackHandle))
		if err := dec.Decode(&mf); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return fromMetaFile(mf)
}

// metaFormat reports the format of a meta file by its name.
func metaFormat(name string) (Format, string, bool) {
	for _, f := range []Format{FormatJSON, FormatMsgpack} {
		if table, ok := strings.CutSuffix(name, f.ext()); ok && table != "" {
			return f, table, true
		}
	}
	return "", "", false
}

// Save writes one meta file per table into dir and removes meta files of
// tables that are no longer in the catalog.
func (c *Catalog) Save(ctx context.Context, dir string, format Format) error {
	format, err := ParseFormat(string(format))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	c.mu.RLock()
	metas := make([]*TableMeta, 0, len(c.tables))
	for _, m := range c.tables {
		cp := *m
		metas = append(metas, &cp)
	}
	c.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	keep := make(map[string]bool, len(metas))
	for _, m := range metas {
		path := filepath.Join(dir, m.Name+format.ext())
		keep[filepath.Base(path)] = true
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := encodeMeta(format, m)
			if err != nil {
				return fmt.Errorf("encode %q: %w", m.Name, err)
			}
			return os.WriteFile(path, data, 0o644)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, _, ok := metaFormat(e.Name()); !ok || keep[e.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
		slog.Debug("catalog: removed stale meta file", "file", e.Name())
	}

	slog.Info("catalog: saved", "dir", dir, "format", format, "tables", len(metas))
	return nil
}

// Load reads every meta file in dir concurrently and builds a catalog from
// them. A missing dir yields an empty catalog.
func Load(ctx context.Context, dir string) (*Catalog, error) {
	c := New()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("catalog: no meta dir, starting empty", "dir", dir)
			return c, nil
		}
		return nil, err
	}

	type job struct {
		path   string
		format Format
		table  string
	}
	var jobs []job
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f, table, ok := metaFormat(e.Name())
		if !ok {
			continue
		}
		jobs = append(jobs, job{path: filepath.Join(dir, e.Name()), format: f, table: table})
	}

	results := make([]*TableMeta, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(j.path)
			if err != nil {
				return err
			}
			m, err := decodeMeta(j.format, data)
			if err != nil {
				return fmt.Errorf("load %s: %w", filepath.Base(j.path), err)
			}
			if m.Name != j.table {
				return fmt.Errorf("load %s: file holds table %q", filepath.Base(j.path), m.Name)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, m := range results {
		if _, ok := c.tables[m.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTable, m.Name)
		}
		c.insertLocked(m)
		slog.Debug("catalog: loaded table", "name", m.Name, "fields", m.Schema.NumFields(), "size", m.Schema.Size())
	}

	slog.Info("catalog: loaded", "dir", dir, "tables", len(results))
	return c, nil
}
