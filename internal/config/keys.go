// Package config provides API key management utilities.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrNoAPIKey is returned when no OpenRouter API key is configured.
var ErrNoAPIKey = errors.New("OPENROUTER_API_KEY not found. Set it in the environment or in .env")

// ErrNoAnthropicKey is returned when the Anthropic provider has no key.
var ErrNoAnthropicKey = errors.New("no Anthropic API key configured")

// PlaceholderAPIKey is the value written to .env.example by `gatekeep init`.
const PlaceholderAPIKey = "your_openrouter_api_key_here"

const openRouterEnv = "OPENROUTER_API_KEY"

// dotenvPaths lists the .env files searched for the OpenRouter key, in order.
var dotenvPaths = func() []string {
	paths := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".gatekeep", ".env"))
	}
	return paths
}

// GetOpenRouterKey returns the OpenRouter API key.
// It checks in order: environment variable, config file, .env files.
func GetOpenRouterKey(cfg *Config) (string, error) {
	key, _ := resolveOpenRouterKey(cfg)
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// GetOpenRouterKeySource returns where the OpenRouter key was sourced from.
func GetOpenRouterKeySource(cfg *Config) KeySource {
	_, source := resolveOpenRouterKey(cfg)
	return source
}

func resolveOpenRouterKey(cfg *Config) (string, KeySource) {
	if key := os.Getenv(openRouterEnv); key != "" {
		return key, KeySourceEnv
	}

	if cfg != nil && usableKey(os.ExpandEnv(cfg.OpenRouter.APIKey)) {
		return os.ExpandEnv(cfg.OpenRouter.APIKey), KeySourceConfig
	}

	for _, path := range dotenvPaths() {
		if key := readDotenvKey(path, openRouterEnv); usableKey(key) {
			return key, KeySourceDotenv
		}
	}

	return "", KeySourceNone
}

// readDotenvKey reads a single key from a dotenv file. Missing or
// unparsable files yield "".
func readDotenvKey(path, name string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(v.GetString(name)), `"'`)
}

func usableKey(key string) bool {
	return key != "" && key != PlaceholderAPIKey && !strings.HasPrefix(key, "${")
}

// GetAnthropicKey returns the Anthropic API key from the configuration.
// It checks in order: environment variable, config file.
func GetAnthropicKey(cfg *Config) (string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}

	if cfg != nil && cfg.Anthropic.APIKey != "" {
		key := os.ExpandEnv(cfg.Anthropic.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, nil
		}
	}

	return "", ErrNoAnthropicKey
}

// ValidateAnthropicKey performs basic validation on an Anthropic API key.
// It checks format but does not verify the key with Anthropic's API.
func ValidateAnthropicKey(key string) error {
	if key == "" {
		return ErrNoAnthropicKey
	}

	if !strings.HasPrefix(key, "sk-ant-") {
		return errors.New("invalid API key format: expected 'sk-ant-' prefix")
	}

	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}

	return nil
}

// ValidateOpenRouterKey rejects empty and placeholder keys.
func ValidateOpenRouterKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}
	if key == PlaceholderAPIKey {
		return errors.New("invalid API key: placeholder value from .env.example")
	}
	if len(key) < 20 {
		return errors.New("invalid API key format: key too short")
	}
	return nil
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceDotenv KeySource = "dotenv"
	KeySourceNone   KeySource = "none"
)
