// Package novaschema is the top-level facade for the schema descriptor and the
// catalog built on it.
package novaschema

import (
	"github.com/tuannm99/novaschema/internal/catalog"
	"github.com/tuannm99/novaschema/internal/record"
	"github.com/tuannm99/novaschema/internal/types"
)

type (
	Schema    = record.Schema
	Field     = record.Field
	FieldType = record.FieldType
	Type      = types.Type
	Catalog   = catalog.Catalog
	TableMeta = catalog.TableMeta
)

const (
	Int32   = types.Int32
	Int64   = types.Int64
	Bool    = types.Bool
	Float64 = types.Float64
	Text    = types.Text
	Bytes   = types.Bytes
)

var (
	NewSchema          = record.NewSchema
	NewAnonymousSchema = record.NewAnonymousSchema
	Merge              = record.Merge
	NewCatalog         = catalog.New

	ErrMalformedSchema      = record.ErrMalformedSchema
	ErrFieldIndexOutOfRange = record.ErrFieldIndexOutOfRange
	ErrFieldNotFound        = record.ErrFieldNotFound
)
