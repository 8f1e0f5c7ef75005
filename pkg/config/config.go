// Package config loads scan configuration from a layered source: built-in
// defaults, then an optional JSON file on top.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/galeep/plugin-librarian/pkg/scan"
)

// Config mirrors scan.Config with koanf tags for file-based overrides.
// It is converted to scan.Config by ToScanConfig; scan itself never
// imports koanf.
type Config struct {
	ShingleSize          int      `koanf:"shingle_size"`
	NumPermutations      int      `koanf:"num_permutations"`
	Seed                 int64    `koanf:"seed"`
	Threshold            float64  `koanf:"threshold"`
	MinContentLength     int      `koanf:"min_content_length"`
	Extensions           []string `koanf:"extensions"`
	OfficialMarketplaces []string `koanf:"official_marketplaces"`
	Workers              int      `koanf:"workers"`
}

// DefaultConfig mirrors scan.Config's own defaults(), so a missing or empty
// config file produces the same behavior as a zero-value scan.Config, with
// one exception: Seed defaults to 42 here, while a zero-value scan.Config
// keeps seed 0, so the two produce different signatures.
func DefaultConfig() Config {
	return Config{
		ShingleSize:      3,
		NumPermutations:  128,
		Seed:             42,
		Threshold:        0.70,
		MinContentLength: 100,
		Extensions:       []string{".md"},
		Workers:          8,
	}
}

// Load reads defaults, then overlays a JSON config file at path if path is
// non-empty. A missing file at a non-empty path is an error; an empty path
// means "defaults only".
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	defaults := map[string]any{
		"shingle_size":        cfg.ShingleSize,
		"num_permutations":    cfg.NumPermutations,
		"seed":                cfg.Seed,
		"threshold":           cfg.Threshold,
		"min_content_length":  cfg.MinContentLength,
		"extensions":          cfg.Extensions,
		"workers":             cfg.Workers,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// ToScanConfig converts to the scan package's config shape. Cache is left
// nil; callers that want a persistent signature cache attach it themselves.
func (c Config) ToScanConfig() scan.Config {
	return scan.Config{
		ShingleSize:          c.ShingleSize,
		NumPermutations:      c.NumPermutations,
		Seed:                 c.Seed,
		Threshold:            c.Threshold,
		MinContentLength:     c.MinContentLength,
		Extensions:           c.Extensions,
		OfficialMarketplaces: c.OfficialMarketplaces,
		Workers:              c.Workers,
	}
}
