package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/config"
)

// configKeys lists the keys shown by `gatekeep config`, in display order.
var configKeys = []string{
	"openrouter.api_key",
	"openrouter.base_url",
	"anthropic.api_key",
	"anthropic.use_aws_bedrock",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"llm.provider",
	"llm.default_model",
	"llm.timeout",
	"llm.max_tokens",
	"llm.max_concurrency",
	"catalog.dir",
	"history.enabled",
	"history.path",
	"output.markdown",
	"output.spinner",
	"log.level",
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Manage configuration",
		Long: `View or modify Gatekeep configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/gatekeep/config.yaml.
Project-specific overrides can be placed in gatekeep.yaml.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch len(args) {
			case 0:
				return displayAllConfig(out, a.cfg)
			case 1:
				value, err := getConfigValue(a.cfg, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, value)
				return nil
			default:
				// Edit the user file alone so env and project values are not persisted.
				userCfg, err := config.LoadUser()
				if err != nil {
					return err
				}
				if err := setConfigValue(userCfg, args[0], args[1]); err != nil {
					return err
				}
				if err := config.Save(userCfg); err != nil {
					return fmt.Errorf("saving config: %w", err)
				}
				fmt.Fprintf(out, "Set %s = %s\n", args[0], args[1])
				return nil
			}
		},
	}
}

func displayAllConfig(w io.Writer, cfg *config.Config) error {
	for _, key := range configKeys {
		value, err := getConfigValue(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
	fmt.Fprintf(w, "\nuser config: %s\n", config.GetUserConfigPath())
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Fprintf(w, "project config: %s\n", p)
	}
	return nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
// API keys are masked.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "openrouter.api_key":
		k, _ := config.GetOpenRouterKey(cfg)
		source := config.GetOpenRouterKeySource(cfg)
		if source == config.KeySourceNone {
			return config.MaskAPIKey(""), nil
		}
		return fmt.Sprintf("%s (%s)", config.MaskAPIKey(k), source), nil
	case "openrouter.base_url":
		return cfg.OpenRouter.BaseURL, nil
	case "anthropic.api_key":
		k, _ := config.GetAnthropicKey(cfg)
		return config.MaskAPIKey(k), nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "llm.provider":
		return cfg.LLM.Provider, nil
	case "llm.default_model":
		return cfg.LLM.DefaultModel, nil
	case "llm.timeout":
		return cfg.LLM.Timeout.String(), nil
	case "llm.max_tokens":
		return strconv.Itoa(cfg.LLM.MaxTokens), nil
	case "llm.max_concurrency":
		return strconv.Itoa(cfg.LLM.MaxConcurrency), nil
	case "catalog.dir":
		return cfg.Catalog.Dir, nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.path":
		return cfg.History.Path, nil
	case "output.markdown":
		return strconv.FormatBool(cfg.Output.Markdown), nil
	case "output.spinner":
		return strconv.FormatBool(cfg.Output.Spinner), nil
	case "log.level":
		return cfg.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "openrouter.api_key":
		if err := config.ValidateOpenRouterKey(value); err != nil {
			return err
		}
		cfg.OpenRouter.APIKey = value
	case "openrouter.base_url":
		cfg.OpenRouter.BaseURL = value
	case "anthropic.api_key":
		if err := config.ValidateAnthropicKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "llm.provider":
		switch value {
		case config.ProviderOpenRouter, config.ProviderAnthropic, config.ProviderAuto:
			cfg.LLM.Provider = value
		default:
			return fmt.Errorf("invalid provider %q: must be one of %s, %s, %s",
				value, config.ProviderOpenRouter, config.ProviderAnthropic, config.ProviderAuto)
		}
	case "llm.default_model":
		cfg.LLM.DefaultModel = value
	case "llm.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s", key, value)
		}
		cfg.LLM.Timeout = d
	case "llm.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid positive integer for %s: %s", key, value)
		}
		cfg.LLM.MaxTokens = n
	case "llm.max_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid non-negative integer for %s: %s", key, value)
		}
		cfg.LLM.MaxConcurrency = n
	case "catalog.dir":
		cfg.Catalog.Dir = value
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		cfg.History.Enabled = b
	case "history.path":
		cfg.History.Path = value
	case "output.markdown":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		cfg.Output.Markdown = b
	case "output.spinner":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		cfg.Output.Spinner = b
	case "log.level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			cfg.Log.Level = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", value)
		}
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
