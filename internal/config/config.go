// Package config loads the trainer's application settings from a YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toradrage/mct-trener/internal/paraphrase"
	"github.com/toradrage/mct-trener/internal/rules"
)

// #region types

// Paraphrase modes.
const (
	ParaphraseNone   = "none"
	ParaphraseOpenAI = "openai"
	ParaphraseGRPC   = "grpc"
)

// Config holds the application settings.
type Config struct {
	DB         string           `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	Paraphrase ParaphraseConfig `yaml:"paraphrase"`
	RulesFile  string           `yaml:"rules_file"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}

// ParaphraseConfig selects and configures the optional paraphrase collaborator.
type ParaphraseConfig struct {
	Mode     string       `yaml:"mode"` // "none" | "openai" | "grpc"
	BudgetMS int          `yaml:"budget_ms"`
	Addr     string       `yaml:"addr"` // gRPC paraphrase service
	OpenAI   OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig configures the chat-completions client.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// #endregion types

// #region defaults

// Default returns the built-in settings before file and environment overrides.
func Default() Config {
	return Config{
		DB:  "mct_trener.db",
		Log: LogConfig{Level: "info"},
		Paraphrase: ParaphraseConfig{
			Mode:     ParaphraseNone,
			BudgetMS: int(paraphrase.DefaultBudget / time.Millisecond),
			Addr:     "localhost:50061",
			OpenAI: OpenAIConfig{
				Model:   "gpt-4o-mini",
				BaseURL: "https://api.openai.com/v1",
			},
		},
	}
}

// #endregion defaults

// #region load

// Load reads the YAML file at path (skipped when path is empty), then applies
// environment overrides: MCT_DB, MCT_LOG_LEVEL, MCT_PARAPHRASE,
// MCT_PARAPHRASE_BUDGET_MS, MCT_PARAPHRASE_ADDR, MCT_RULES_FILE,
// OPENAI_API_KEY, OPENAI_MODEL, OPENAI_BASE_URL.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.DB = envOr("MCT_DB", cfg.DB)
	cfg.Log.Level = envOr("MCT_LOG_LEVEL", cfg.Log.Level)
	cfg.RulesFile = envOr("MCT_RULES_FILE", cfg.RulesFile)
	cfg.Paraphrase.Mode = envOr("MCT_PARAPHRASE", cfg.Paraphrase.Mode)
	cfg.Paraphrase.Addr = envOr("MCT_PARAPHRASE_ADDR", cfg.Paraphrase.Addr)
	if v := os.Getenv("MCT_PARAPHRASE_BUDGET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Paraphrase.BudgetMS = n
		}
	}
	cfg.Paraphrase.OpenAI.APIKey = envOr("OPENAI_API_KEY", cfg.Paraphrase.OpenAI.APIKey)
	cfg.Paraphrase.OpenAI.Model = envOr("OPENAI_MODEL", cfg.Paraphrase.OpenAI.Model)
	cfg.Paraphrase.OpenAI.BaseURL = envOr("OPENAI_BASE_URL", cfg.Paraphrase.OpenAI.BaseURL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	switch c.Paraphrase.Mode {
	case ParaphraseNone, ParaphraseOpenAI, ParaphraseGRPC:
	default:
		errs = append(errs, fmt.Errorf("unknown paraphrase mode %q", c.Paraphrase.Mode))
	}
	if c.Paraphrase.Mode == ParaphraseOpenAI && c.Paraphrase.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("paraphrase mode openai needs OPENAI_API_KEY"))
	}
	if c.DB == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	return errors.Join(errs...)
}

// #endregion load

// #region derived

// Budget returns the paraphrase time budget.
func (c Config) Budget() time.Duration {
	if c.Paraphrase.BudgetMS <= 0 {
		return paraphrase.DefaultBudget
	}
	return time.Duration(c.Paraphrase.BudgetMS) * time.Millisecond
}

// Rules returns the rule table: the default, or the default overlaid with RulesFile.
func (c Config) Rules() (rules.Config, error) {
	if c.RulesFile == "" {
		return rules.MCTRulesV2(), nil
	}
	return rules.LoadFile(c.RulesFile)
}

// Paraphraser builds the configured paraphrase client. It returns nil for mode
// "none". The close func is never nil.
func (c Config) Paraphraser() (paraphrase.Paraphraser, func() error, error) {
	noop := func() error { return nil }
	switch c.Paraphrase.Mode {
	case ParaphraseOpenAI:
		o := c.Paraphrase.OpenAI
		return paraphrase.NewOpenAIParaphraser(o.APIKey,
			paraphrase.WithOpenAIModel(o.Model),
			paraphrase.WithOpenAIBaseURL(o.BaseURL),
		), noop, nil
	case ParaphraseGRPC:
		g, err := paraphrase.NewGRPCParaphraser(c.Paraphrase.Addr)
		if err != nil {
			return nil, noop, err
		}
		return g, g.Close, nil
	default:
		return nil, noop, nil
	}
}

// #endregion derived

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
