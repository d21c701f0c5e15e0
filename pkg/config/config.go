// Package config holds run configuration for the external services and
// reference data the derivers depend on.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets config values be written in time.ParseDuration form ("30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the top-level run configuration.
type Config struct {
	Inference InferenceConfig `yaml:"inference"`
	Grammar   GrammarConfig   `yaml:"grammar"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`

	// BiasTable is the path to the scraped media bias/fact-check CSV.
	BiasTable string `yaml:"bias_table"`
	// NamesDB is the path to the sqlite database of ranked first/last names.
	NamesDB string `yaml:"names_db"`
	// ErrorLog is where failed batch ranges are appended.
	ErrorLog string `yaml:"error_log"`
}

// InferenceConfig locates the model-serving endpoint.
type InferenceConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// GrammarConfig locates the grammar-checking endpoint.
type GrammarConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// GeocoderConfig tunes the location lookup client.
type GeocoderConfig struct {
	BaseURL           string   `yaml:"base_url"`
	UserAgent         string   `yaml:"user_agent"`
	Timeout           Duration `yaml:"timeout"`
	MaxRetries        int      `yaml:"max_retries"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Inference: InferenceConfig{
			BaseURL: "http://localhost:8500",
			Timeout: Duration(60 * time.Second),
		},
		Grammar: GrammarConfig{
			BaseURL: "http://localhost:8010",
			Timeout: Duration(30 * time.Second),
		},
		Geocoder: GeocoderConfig{
			BaseURL:           "https://nominatim.openstreetmap.org",
			UserAgent:         "location_lookup",
			Timeout:           Duration(10 * time.Second),
			MaxRetries:        3,
			RequestsPerSecond: 1,
		},
		BiasTable: "media-bias-scrubbed-results.csv",
		NamesDB:   "names.db",
		ErrorLog:  "processing_errors.log",
	}
}

// Load reads a YAML config file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
