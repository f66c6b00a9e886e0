package config

import "time"

// Config holds runtime settings for the KidsBank CLI.
type Config struct {
	ServerURL      string
	DatabasePath   string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "kidsbank.db"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config from defaults, then overlays the JSON file
// at path when path is not empty. Command-line flags are applied on top by
// the caller.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path == "" {
		return cfg, nil
	}
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
