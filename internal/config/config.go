// Package config loads the server configuration from a YAML file and
// validates it against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed config.cue
var schemaCUE string

// Config holds the server configuration. Zero values are not meaningful;
// start from Default.
type Config struct {
	// Database is the path to the SQLite database file.
	Database string `yaml:"database" json:"database"`

	// LogLevel is the minimum level emitted by the logger:
	// debug, info, warn, or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `yaml:"log_format" json:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database:  "rollcall.db",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads a YAML configuration file over the defaults and validates the
// result. Fields absent from the file keep their default values; unknown
// fields are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate unifies the configuration with the embedded #Config schema and
// reports any violation.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("looking up config schema: %w", err)
	}

	unified := def.Unify(ctx.Encode(c))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
