// Package config loads verdeiq configuration from a JSON file at
// $XDG_CONFIG_HOME/verdeiq/config.json with VERDEIQ_* environment
// variable overrides.
package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server    ServerConfig
	Bank      BankConfig
	Storage   StorageConfig
	Cohere    CohereConfig
	Narrative NarrativeConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
	// APIToken, when set, is required as a bearer token on every route
	// except /health. Empty disables auth (local single-user default).
	APIToken string
}

type BankConfig struct {
	// Path to a question bank YAML file; empty uses the embedded bank.
	Path string
	// WeightsPath to an industry weight table; empty uses the embedded one.
	WeightsPath string
}

type StorageConfig struct {
	DataDir string
}

type CohereConfig struct {
	BaseURL string
	Model   string
	// APIKey is read from VERDEIQ_COHERE_API_KEY only, never from the
	// config file. A missing key is not fatal: the narrative step
	// degrades to a warning while scoring keeps working.
	APIKey string
}

type NarrativeConfig struct {
	Timeout string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Cohere: CohereConfig{
			BaseURL: "https://api.cohere.ai",
			Model:   "command-r-plus",
		},
		Narrative: NarrativeConfig{
			Timeout: "60s",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "verdeiq-data"
		}
	}
	return filepath.Join(dir, "verdeiq")
}

// Load reads configuration from the config file, then applies environment
// overrides. A missing file simply yields the defaults.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b *fileBackend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
