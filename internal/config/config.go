// Package config loads facet configuration from CUE files, unifying user
// input with an embedded schema so defaults and validation live in one
// place.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// Config is the fully resolved facet configuration.
type Config struct {
	Engine EngineConfig `json:"engine"`
	Cache  CacheConfig  `json:"cache"`
}

// EngineConfig describes the engine connection.
type EngineConfig struct {
	Driver                string `json:"driver"`
	DSN                   string `json:"dsn"`
	CommandTimeoutSeconds int    `json:"command_timeout_seconds"`
	RowCap                int    `json:"row_cap"`
}

// CacheConfig describes the result cache.
type CacheConfig struct {
	TTLSeconds int `json:"ttl_seconds"`
	MaxItems   int `json:"max_items"`
}

// CommandTimeout returns the engine timeout as a duration.
func (c Config) CommandTimeout() time.Duration {
	return time.Duration(c.Engine.CommandTimeoutSeconds) * time.Second
}

// CacheTTL returns the result cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// ConfigError is a configuration failure, carrying a CUE source position
// when one is available.
type ConfigError struct {
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the configuration produced by the schema defaults alone.
func Default() Config {
	cfg, err := decode(schemaValue(cuecontext.New()))
	if err != nil {
		// The embedded schema decoding itself cannot fail short of a
		// build-time mistake.
		panic(fmt.Sprintf("config: embedded schema is broken: %v", err))
	}
	return cfg
}

// Load reads the CUE file at path and resolves it against the embedded
// schema. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Message: fmt.Sprintf("reading config: %v", err)}
	}

	ctx := cuecontext.New()
	user := ctx.CompileBytes(data, cue.Filename(path))
	if err := user.Err(); err != nil {
		return Config{}, cueError("parsing config", err)
	}

	unified := schemaValue(ctx).Unify(user)
	if err := unified.Err(); err != nil {
		return Config{}, cueError("unifying config with schema", err)
	}

	return decode(unified)
}

// schemaValue compiles the embedded schema and returns the #Config
// definition value.
func schemaValue(ctx *cue.Context) cue.Value {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	return schema.LookupPath(cue.ParsePath("#Config"))
}

func decode(v cue.Value) (Config, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, cueError("validating config", err)
	}
	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, cueError("decoding config", err)
	}
	return cfg, nil
}

// cueError flattens a CUE error into a ConfigError, keeping the first
// source position when the error carries one.
func cueError(context string, err error) error {
	ce := &ConfigError{Message: fmt.Sprintf("%s: %v", context, err)}
	if positions := cueerrors.Positions(cueerrors.Promote(err, context)); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
