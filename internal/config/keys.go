package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "VERDEIQ_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "VERDEIQ_SERVER_API_TOKEN",
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "bank.path", typ: kString, env: "VERDEIQ_BANK_PATH",
		apply:   func(cfg *Config, v any) { cfg.Bank.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Bank.Path },
	},
	{
		key: "bank.weights_path", typ: kString, env: "VERDEIQ_BANK_WEIGHTS_PATH",
		apply:   func(cfg *Config, v any) { cfg.Bank.WeightsPath = v.(string) },
		extract: func(cfg Config) any { return cfg.Bank.WeightsPath },
	},
	{
		key: "storage.data_dir", typ: kString, env: "VERDEIQ_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "cohere.base_url", typ: kString, env: "VERDEIQ_COHERE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Cohere.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Cohere.BaseURL },
	},
	{
		key: "cohere.model", typ: kString, env: "VERDEIQ_COHERE_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Cohere.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Cohere.Model },
	},
	{
		key: "cohere.api_key", typ: kString, env: "VERDEIQ_COHERE_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Cohere.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Cohere.APIKey },
	},
	{
		key: "narrative.timeout", typ: kString, env: "VERDEIQ_NARRATIVE_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Narrative.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Narrative.Timeout },
	},
	{
		key: "log.level", typ: kString, env: "VERDEIQ_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b *fileBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
