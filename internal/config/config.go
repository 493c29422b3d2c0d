package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"qcm-runner/internal/domain"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz Quiz `yaml:"quiz"`
}

// Quiz configures the source catalogue and the session defaults.
type Quiz struct {
	Profile       string          `yaml:"profile"`
	FetchTimeout  string          `yaml:"fetchTimeout"`
	PassThreshold float64         `yaml:"passThreshold"`
	BaseURL       string          `yaml:"baseURL"`
	SourceDir     string          `yaml:"sourceDir"`
	Sources       []domain.Source `yaml:"sources"`
	Defaults      domain.Settings `yaml:"defaults"`
}

// DefaultSources are the four question series shipped with the quiz.
func DefaultSources() []domain.Source {
	return []domain.Source{
		{ID: "def", Label: "Définitions", URL: "def.json"},
		{ID: "re", Label: "Réglementation", URL: "re.json"},
		{ID: "geozones", Label: "Géozones", URL: "geozones.json"},
		{ID: "met", Label: "Météorologie", URL: "met.json"},
	}
}

// Default returns the configuration used when no file overrides a key.
func Default() Config {
	cfg := Config{}
	cfg.Quiz.Profile = "default"
	cfg.Quiz.PassThreshold = domain.PassThreshold
	cfg.Quiz.Defaults = domain.DefaultSettings()
	return cfg
}

// Load reads YAML config from path. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the defaults when the file
// does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil && os.IsNotExist(err) {
		cfg = Default()
		cfg.normalize()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) normalize() {
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if len(c.Quiz.Sources) == 0 {
		c.Quiz.Sources = DefaultSources()
	}
	for i, s := range c.Quiz.Sources {
		if s.Label == "" {
			c.Quiz.Sources[i].Label = s.ID
		}
	}
	if c.Quiz.PassThreshold <= 0 || c.Quiz.PassThreshold > 1 {
		c.Quiz.PassThreshold = domain.PassThreshold
	}
	if c.Quiz.Profile == "" {
		c.Quiz.Profile = "default"
	}
}

// FetchTimeoutDuration returns the per-source fetch bound.
func (q Quiz) FetchTimeoutDuration() time.Duration {
	return TTLDuration(q.FetchTimeout, 10*time.Second)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
