// Package config handles configuration loading and management for Gatekeep.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ProjectFileName is the project manifest written by `gatekeep init`.
// It doubles as the project-level config override.
const ProjectFileName = "gatekeep.yaml"

// Provider names accepted by llm.provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderAuto       = "auto"
)

// Config holds all configuration for Gatekeep.
type Config struct {
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	History    HistoryConfig    `mapstructure:"history"`
	Output     OutputConfig     `mapstructure:"output"`
	Log        LogConfig        `mapstructure:"log"`
	Project    ProjectConfig    `mapstructure:"project"`
}

// OpenRouterConfig holds OpenRouter endpoint settings.
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig holds settings for the direct Anthropic provider.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// LLMConfig holds request settings shared by all providers.
type LLMConfig struct {
	// Provider is one of openrouter, anthropic or auto.
	Provider     string        `mapstructure:"provider"`
	DefaultModel string        `mapstructure:"default_model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	// MaxConcurrency bounds fan-out calls. Zero means unbounded.
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// CatalogConfig points at an explicit persona/governance/standards root.
type CatalogConfig struct {
	Dir string `mapstructure:"dir"`
}

// HistoryConfig controls the local consultation log.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// OutputConfig holds terminal display settings.
type OutputConfig struct {
	Markdown bool `mapstructure:"markdown"`
	Spinner  bool `mapstructure:"spinner"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ProjectConfig mirrors the project section of gatekeep.yaml.
type ProjectConfig struct {
	Name       string                  `mapstructure:"name"`
	Standards  []string                `mapstructure:"standards"`
	Governance ProjectGovernanceConfig `mapstructure:"governance"`
}

// ProjectGovernanceConfig holds project-level governance knobs.
type ProjectGovernanceConfig struct {
	BudgetLimit float64 `mapstructure:"budget_limit"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (OPENROUTER_API_KEY, ANTHROPIC_API_KEY, GATEKEEP_*)
// 2. Project config (gatekeep.yaml in current directory or parent)
// 3. User config (~/.config/gatekeep/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	expandKeys(cfg)

	return cfg, nil
}

// LoadUser loads only the user config file over the defaults, without
// project overrides or environment variables. It is the base for edits
// that are saved back with Save.
func LoadUser() (*Config, error) {
	path := GetUserConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	// ${VAR} references are kept as written.
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	expandKeys(cfg)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes the configuration to the given path.
func SaveTo(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("openrouter.api_key", cfg.OpenRouter.APIKey)
	v.Set("openrouter.base_url", cfg.OpenRouter.BaseURL)
	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_aws_bedrock", cfg.Anthropic.UseAWSBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("llm.provider", cfg.LLM.Provider)
	v.Set("llm.default_model", cfg.LLM.DefaultModel)
	v.Set("llm.timeout", cfg.LLM.Timeout.String())
	v.Set("llm.max_tokens", cfg.LLM.MaxTokens)
	v.Set("llm.max_concurrency", cfg.LLM.MaxConcurrency)
	v.Set("catalog.dir", cfg.Catalog.Dir)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)
	v.Set("output.markdown", cfg.Output.Markdown)
	v.Set("output.spinner", cfg.Output.Spinner)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultHistoryPath returns the default location of the history database.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".gatekeep", "history.db")
	}
	return filepath.Join(home, ".gatekeep", "history.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("llm.provider", ProviderOpenRouter)
	v.SetDefault("llm.default_model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.max_concurrency", 0)

	v.SetDefault("catalog.dir", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())

	v.SetDefault("output.markdown", true)
	v.SetDefault("output.spinner", true)

	v.SetDefault("log.level", "warn")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	v.BindEnv("openrouter.base_url", "GATEKEEP_OPENROUTER_BASE_URL")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.provider", "GATEKEEP_PROVIDER")
	v.BindEnv("llm.default_model", "GATEKEEP_MODEL")
	v.BindEnv("catalog.dir", "GATEKEEP_CATALOG_DIR")
	v.BindEnv("history.enabled", "GATEKEEP_HISTORY")
	v.BindEnv("log.level", "GATEKEEP_LOG_LEVEL")
}

// getUserConfigDir returns the XDG config directory for Gatekeep.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "gatekeep")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "gatekeep")
	}
	return filepath.Join(home, ".config", "gatekeep")
}

// findProjectConfig searches for gatekeep.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandKeys expands ${VAR} references in credential fields.
func expandKeys(cfg *Config) {
	cfg.OpenRouter.APIKey = os.ExpandEnv(cfg.OpenRouter.APIKey)
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		OpenRouter: OpenRouterConfig{
			BaseURL: "https://openrouter.ai/api/v1",
		},
		LLM: LLMConfig{
			Provider:     ProviderOpenRouter,
			DefaultModel: "anthropic/claude-3.5-sonnet",
			Timeout:      60 * time.Second,
			MaxTokens:    4096,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
		Output: OutputConfig{
			Markdown: true,
			Spinner:  true,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}
