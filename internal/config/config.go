package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"survey-recon-go/internal/normalize"
	"survey-recon-go/internal/types"
)

// SynonymMap maps a canonical field to its aliases in priority order.
type SynonymMap map[types.Field][]string

// Limits holds the duration thresholds. Zero values mean "use the default".
type Limits struct {
	MinutesThreshold float64 `yaml:"minutes_threshold"`
	MaxDurationSec   float64 `yaml:"max_duration_sec"`
}

// Config is built once per run and never mutated afterwards; accessors
// return copies.
type Config struct {
	synonyms      SynonymMap
	sheetPriority []string
	limits        Limits
	unknown       []string
}

type fileConfig struct {
	Synonyms      map[string][]string `yaml:"synonyms"`
	SheetPriority []string            `yaml:"sheet_priority"`
	Limits        Limits              `yaml:"limits"`
}

// New builds a Config from already-typed values.
func New(synonyms SynonymMap, sheetPriority []string, limits Limits) Config {
	syn := make(SynonymMap, len(synonyms))
	for f, aliases := range synonyms {
		syn[f] = slices.Clone(aliases)
	}
	if limits.MinutesThreshold == 0 {
		limits.MinutesThreshold = normalize.DefaultMinutesThreshold
	}
	if limits.MaxDurationSec == 0 {
		limits.MaxDurationSec = normalize.DefaultMaxDurationSec
	}
	return Config{
		synonyms:      syn,
		sheetPriority: slices.Clone(sheetPriority),
		limits:        limits,
	}
}

// Empty is the configuration used when no config file exists.
func Empty() Config {
	return New(nil, nil, Limits{})
}

// Load reads a YAML config document. A missing file is not an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a config document.
func Parse(data []byte) (Config, error) {
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if raw.Limits.MinutesThreshold < 0 || raw.Limits.MaxDurationSec < 0 {
		return Config{}, fmt.Errorf("parse config: limits must not be negative")
	}

	syn := make(SynonymMap, len(raw.Synonyms))
	var unknown []string
	for key, aliases := range raw.Synonyms {
		f := types.Field(key)
		if !f.IsCanonical() {
			unknown = append(unknown, key)
			continue
		}
		syn[f] = aliases
	}
	sort.Strings(unknown)

	cfg := New(syn, raw.SheetPriority, raw.Limits)
	cfg.unknown = unknown
	return cfg, nil
}

// Aliases returns the configured aliases for f, in priority order.
func (c Config) Aliases(f types.Field) []string {
	return slices.Clone(c.synonyms[f])
}

// Synonyms returns a copy of the full synonym map.
func (c Config) Synonyms() SynonymMap {
	out := make(SynonymMap, len(c.synonyms))
	for f, aliases := range c.synonyms {
		out[f] = slices.Clone(aliases)
	}
	return out
}

func (c Config) SheetPriority() []string { return slices.Clone(c.sheetPriority) }

func (c Config) Limits() Limits { return c.limits }

// UnknownFields lists synonym keys that are not canonical fields.
// They are ignored during resolution.
func (c Config) UnknownFields() []string { return slices.Clone(c.unknown) }
