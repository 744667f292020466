// Package config loads curation settings from defaults, an optional TOML
// file, and MEMGATE_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every externally tunable value the curation layer depends
// on. It is immutable after Load and passed into components at
// construction; nothing reads ambient process state afterwards.
type Config struct {
	// Quality gate.
	MinLength int `toml:"min_length"`
	MinWords  int `toml:"min_words"`
	MaxLength int `toml:"max_length"`

	// Similarity thresholds.
	DuplicateThreshold     float64 `toml:"duplicate_threshold"`
	ConsolidationThreshold float64 `toml:"consolidation_threshold"`

	// Context assembly.
	BoostFactor         float64 `toml:"boost_factor"`
	DefaultContextItems int     `toml:"default_context_items"`
	MaxContextItems     int     `toml:"max_context_items"`
	FetchMultiplier     int     `toml:"fetch_multiplier"`
	FetchCeiling        int     `toml:"fetch_ceiling"`

	// Verbose controls whether rejection responses carry scores, issues,
	// and duplicate candidates, or collapse to a bare ok=false.
	Verbose bool `toml:"verbose"`

	// Remote store.
	APIKey    string `toml:"api_key"`
	APIBase   string `toml:"api_base"`
	APIBaseV2 string `toml:"api_base_v2"`

	// Server and CLI.
	Listen      string `toml:"listen"`
	DBPath      string `toml:"db_path"`
	DefaultUser string `toml:"default_user"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MinLength:              20,
		MinWords:               4,
		MaxLength:              500,
		DuplicateThreshold:     0.85,
		ConsolidationThreshold: 0.7,
		BoostFactor:            0.15,
		DefaultContextItems:    10,
		MaxContextItems:        50,
		FetchMultiplier:        3,
		FetchCeiling:           60,
		Verbose:                true,
		APIBase:                "https://api.mem0.ai/v1",
		APIBaseV2:              "https://api.mem0.ai/v2",
		Listen:                 ":8077",
		DefaultUser:            "default",
	}
}

// Load builds the configuration. path may be empty; a missing file at an
// explicit path is an error, environment overrides always apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	envInt("MEMGATE_MIN_LENGTH", &c.MinLength)
	envInt("MEMGATE_MIN_WORDS", &c.MinWords)
	envInt("MEMGATE_MAX_LENGTH", &c.MaxLength)
	envFloat("MEMGATE_DUPLICATE_THRESHOLD", &c.DuplicateThreshold)
	envFloat("MEMGATE_CONSOLIDATION_THRESHOLD", &c.ConsolidationThreshold)
	envFloat("MEMGATE_BOOST_FACTOR", &c.BoostFactor)
	envInt("MEMGATE_DEFAULT_CONTEXT_ITEMS", &c.DefaultContextItems)
	envInt("MEMGATE_MAX_CONTEXT_ITEMS", &c.MaxContextItems)
	envInt("MEMGATE_FETCH_MULTIPLIER", &c.FetchMultiplier)
	envInt("MEMGATE_FETCH_CEILING", &c.FetchCeiling)
	envBool("MEMGATE_VERBOSE", &c.Verbose)
	envStr("MEM0_API_KEY", &c.APIKey) // legacy name
	envStr("MEMGATE_API_KEY", &c.APIKey)
	envStr("MEMGATE_API_BASE", &c.APIBase)
	envStr("MEMGATE_API_BASE_V2", &c.APIBaseV2)
	envStr("MEMGATE_LISTEN", &c.Listen)
	envStr("MEMGATE_DB", &c.DBPath)
	envStr("MEMGATE_USER", &c.DefaultUser)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
