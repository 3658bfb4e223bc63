// Package config defines the JSON-serializable configuration for the
// application. It is intentionally small and explicit: decoding is
// performed by the standard library, with a light Options helper for
// typed access to backend-specific settings.
//
// Example:
//
//	{
//	  "listen": ":8080",
//	  "store": { "kind": "sqlite", "dsn": "cantina.db" },
//	  "fetch": { "timeout": "20s", "max_retries": 3 },
//	  "knowledge_path": "knowledge.yaml",
//	  "grid_size": 100
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cantina/internal/store"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Listen is the HTTP bind address for the API server.
	Listen string `json:"listen"`

	// Store selects and configures the persistence backend.
	Store Store `json:"store"`

	// Fetch tunes the remote CSV client.
	Fetch Fetch `json:"fetch"`

	// KnowledgePath points at a YAML knowledge file for the field
	// extractor; empty means the built-in tables.
	KnowledgePath string `json:"knowledge_path"`

	// GridSize is the fixed row count the parsed grid is padded to
	// for UI consumption.
	GridSize int `json:"grid_size"`
}

// Store describes the persistence backend. Options carries
// backend-specific settings that do not warrant first-class fields.
type Store struct {
	Kind    string  `json:"kind"`
	DSN     string  `json:"dsn"`
	Options Options `json:"options"`
}

// StoreConfig maps onto the storage layer's own config type.
func (s Store) StoreConfig() store.Config {
	return store.Config{Kind: s.Kind, DSN: s.DSN}
}

// Fetch tunes the HTTP client used for remote spreadsheet exports.
type Fetch struct {
	Timeout        Duration `json:"timeout"`
	MaxRetries     int      `json:"max_retries"`
	InitialBackoff Duration `json:"initial_backoff"`
	MaxBackoff     Duration `json:"max_backoff"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:   ":8080",
		Store:    Store{Kind: "sqlite", DSN: "cantina.db", Options: Options{}},
		GridSize: 100,
	}
}

// Load reads and decodes a JSON config file, filling unset fields from
// Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.GridSize <= 0 {
		cfg.GridSize = 100
	}
	return cfg, nil
}

// Duration is a time.Duration that decodes from JSON either as a
// duration string ("20s") or a number of seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		parsed, err := time.ParseDuration(x)
		if err != nil {
			return fmt.Errorf("config: bad duration %q: %w", x, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(x * float64(time.Second)))
	default:
		return fmt.Errorf("config: bad duration %v", v)
	}
	return nil
}

// Options is a small helper to fetch typed values from arbitrary JSON
// maps. It performs only minimal type coercion and returns the
// provided default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or
// not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not
// a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as
// float64, so this accepts float64 and casts.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null "options" object decode to a
// non-nil, empty map, so call sites need no nil checks.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
