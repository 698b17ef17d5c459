package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// identifierPattern is the allow-list for table and column names sourced from
// configuration. Anything failing it never reaches a SQL statement.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if TRACORP_CONFIG is set
//  3. env (prefix TRACORP_, "__" separates nested keys)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TRACORP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TRACORP_LOG_LEVEL, TRACORP_WAREHOUSE__DSN, ...
	// A double underscore separates nested keys; single underscores stay in
	// place to match the koanf tags on the structs.
	envProvider := env.Provider("TRACORP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tracorp_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate fails fast on missing required keys and unsafe identifiers.
func (c *Config) validate() error {
	if c.Warehouse.DSN == "" {
		return fmt.Errorf("%w: warehouse.dsn must not be empty", ErrInvalidConfig)
	}
	if c.Directory.DSN == "" {
		return fmt.Errorf("%w: directory.dsn must not be empty", ErrInvalidConfig)
	}
	if len(c.ActiveActivities) == 0 {
		return fmt.Errorf("%w: active_activities must not be empty", ErrInvalidConfig)
	}

	for name, ident := range map[string]string{
		"tables.staging_report":      c.Tables.StagingReport,
		"tables.staging_completions": c.Tables.StagingCompletions,
		"tables.ledger":              c.Tables.Ledger,
		"roster.table":               c.Roster.Table,
		"roster.id_column":           c.Roster.IDColumn,
		"roster.email_column":        c.Roster.EmailColumn,
	} {
		if err := ValidateIdentifier(ident); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	for name, src := range map[string]Source{
		"report":      c.Report,
		"completions": c.Completions,
	} {
		if err := src.validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if len(c.Output.Delimiter) != 1 {
		return fmt.Errorf("%w: output.delimiter must be a single character", ErrInvalidConfig)
	}
	return nil
}

func (s Source) validate() error {
	switch s.Format {
	case FormatDelimited:
		if len(s.Delimiter) != 1 {
			return fmt.Errorf("%w: delimiter must be a single character", ErrInvalidConfig)
		}
	case FormatWorkbook:
	default:
		return fmt.Errorf("%w: format must be delimited or workbook, got %q", ErrInvalidConfig, s.Format)
	}
	if s.Path == "" {
		return fmt.Errorf("%w: path must not be empty", ErrInvalidConfig)
	}
	if len(s.ActivityColumns) == 0 {
		return fmt.Errorf("%w: activity_columns must not be empty", ErrInvalidConfig)
	}
	if s.StatusColumn != "" && s.CompletedCode == "" {
		return fmt.Errorf("%w: completed_code required when status_column is set", ErrInvalidConfig)
	}
	return nil
}

// ValidateIdentifier rejects table/column names outside the allow-list.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: unsafe SQL identifier %q", ErrInvalidConfig, name)
	}
	return nil
}
