package internal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/tuannm99/novaschema/internal/catalog"
	"github.com/tuannm99/novaschema/internal/record"
	"github.com/tuannm99/novaschema/internal/types"
)

type ColumnConfig struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

type TableConfig struct {
	Name       string         `mapstructure:"name"`
	PrimaryKey string         `mapstructure:"primary_key"`
	Columns    []ColumnConfig `mapstructure:"columns"`
}

type NovaSchemaConfig struct {
	AppName string `mapstructure:"app_name"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Catalog struct {
		Dir    string `mapstructure:"dir"`
		Format string `mapstructure:"format"`
	} `mapstructure:"catalog"`

	Shell struct {
		HistoryFile string `mapstructure:"history_file"`
		Prompt      string `mapstructure:"prompt"`
	} `mapstructure:"shell"`

	Tables []TableConfig `mapstructure:"tables"`
}

func LoadConfig(path string) (*NovaSchemaConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app_name", "novaschema")
	v.SetDefault("log.level", "info")
	v.SetDefault("catalog.dir", "./data/catalog")
	v.SetDefault("catalog.format", string(catalog.FormatJSON))
	v.SetDefault("shell.prompt", "novaschema> ")

	v.SetEnvPrefix("NOVASCHEMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg NovaSchemaConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if _, err := catalog.ParseFormat(cfg.Catalog.Format); err != nil {
		return nil, fmt.Errorf("config catalog.format: %w", err)
	}
	if _, err := cfg.LogLevel(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *NovaSchemaConfig) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config log.level: %w", err)
	}
	return lvl, nil
}

// Schema builds the descriptor declared for a table.
func (t TableConfig) Schema() (*record.Schema, error) {
	fts := make([]record.FieldType, len(t.Columns))
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		typ, err := types.Parse(col.Type)
		if err != nil {
			return nil, fmt.Errorf("table %q column %q: %w", t.Name, col.Name, err)
		}
		fts[i] = typ
		names[i] = col.Name
	}
	desc, err := record.NewSchema(fts, names)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", t.Name, err)
	}
	return desc, nil
}

// RegisterTables adds every table declared in the config to cat.
func (c *NovaSchemaConfig) RegisterTables(cat *catalog.Catalog) error {
	for _, t := range c.Tables {
		desc, err := t.Schema()
		if err != nil {
			return err
		}
		if _, err := cat.AddTable(t.Name, desc, t.PrimaryKey); err != nil {
			return fmt.Errorf("register table %q: %w", t.Name, err)
		}
	}
	return nil
}
