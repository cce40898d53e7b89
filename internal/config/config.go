// Package config handles loading and validating the config.toml configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration.
type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Intel    IntelConfig    `toml:"intel"`
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Analysis AnalysisConfig `toml:"analysis"`
	Output   OutputConfig   `toml:"output"`
}

// LLMConfig configures the optional LLM enrichment pass. Enrichment is off
// unless a provider is configured.
type LLMConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"` // anthropic, openai, ollama
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
	Timeout  int    `toml:"timeout"` // HTTP timeout in seconds (0 = provider default)
}

// IntelConfig configures the external threat intelligence feed.
type IntelConfig struct {
	Endpoint  string `toml:"endpoint"`
	APIKey    string `toml:"api_key"`
	Timeout   int    `toml:"timeout"`    // HTTP timeout in seconds (0 = default)
	CacheSize int    `toml:"cache_size"` // LRU entries (0 = default)
}

// ServerConfig configures the webhook ingestion server.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	APIKey      string `toml:"api_key"`      // required bearer key for webhook callers
	CallbackURL string `toml:"callback_url"` // where finished reports are relayed
}

// StorageConfig selects the history backend. An empty database URL keeps
// history in memory.
type StorageConfig struct {
	DatabaseURL string `toml:"database_url"`
	Capacity    int    `toml:"capacity"` // in-memory history bound (0 = default)
}

// AnalysisConfig tunes optional pipeline stages.
type AnalysisConfig struct {
	AdjustSeverity bool `toml:"adjust_severity"`
	Similarity     bool `toml:"similarity"`
	SigmaRules     bool `toml:"sigma_rules"`
}

// OutputConfig configures report output behavior.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// Default returns the configuration used when no config file is given:
// heuristics only, in-memory history, all optional stages on.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			AdjustSeverity: true,
			Similarity:     true,
			SigmaRules:     true,
		},
		Output: OutputConfig{Dir: "output"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads a config.toml file and returns a validated Config.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s\n  Create one with: cp config.example.toml config.toml", path)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides reads sensitive values from the environment so they
// can stay out of the config file.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("TRIAGE_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("TRIAGE_INTEL_KEY"); key != "" {
		cfg.Intel.APIKey = key
	}
	if url := os.Getenv("TRIAGE_DB_URL"); url != "" {
		cfg.Storage.DatabaseURL = url
	}
	if key := os.Getenv("TRIAGE_SERVER_KEY"); key != "" {
		cfg.Server.APIKey = key
	}
}

func (c *Config) validate() error {
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)

	if c.LLM.Enabled {
		switch c.LLM.Provider {
		case "anthropic", "openai", "ollama":
			// valid
		case "":
			return fmt.Errorf("llm.provider is required when llm.enabled (anthropic, openai, ollama)")
		default:
			return fmt.Errorf("unsupported llm.provider: %q", c.LLM.Provider)
		}

		// API key required for cloud providers
		if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider)
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required when llm.enabled")
		}
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	return nil
}
