package main

import (
	"fmt"
	"log/slog"

	"github.com/gatekeep-ai/gatekeep/internal/config"
	"github.com/gatekeep-ai/gatekeep/internal/llm"
	"github.com/gatekeep-ai/gatekeep/internal/version"
)

const attributionURL = "https://github.com/gatekeep-ai/gatekeep"

// newClientFromConfig creates the model client for llm.provider.
func newClientFromConfig(cfg *config.Config, logger *slog.Logger) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenRouter, "":
		return newOpenRouterClient(cfg, logger)
	case config.ProviderAnthropic:
		return newAnthropicClient(cfg)
	case config.ProviderAuto:
		return newAutoClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm.provider %q: must be one of %s, %s, %s",
			cfg.LLM.Provider, config.ProviderOpenRouter, config.ProviderAnthropic, config.ProviderAuto)
	}
}

func newOpenRouterClient(cfg *config.Config, logger *slog.Logger) (*llm.OpenRouterClient, error) {
	key, err := config.GetOpenRouterKey(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("using OpenRouter", "key", config.MaskAPIKey(key), "source", config.GetOpenRouterKeySource(cfg))

	return llm.NewOpenRouterClient(llm.OpenRouterConfig{
		APIKey:  key,
		BaseURL: cfg.OpenRouter.BaseURL,
		Timeout: cfg.LLM.Timeout,
		Referer: attributionURL,
		Title:   "Gatekeep " + version.Get(),
	})
}

func newAnthropicClient(cfg *config.Config) (*llm.AnthropicClient, error) {
	acfg := llm.AnthropicConfig{
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
		Timeout:       cfg.LLM.Timeout,
		MaxTokens:     int64(cfg.LLM.MaxTokens),
	}
	if !acfg.UseAWSBedrock {
		key, err := config.GetAnthropicKey(cfg)
		if err != nil {
			return nil, err
		}
		acfg.APIKey = key
	}
	return llm.NewAnthropicClient(acfg)
}

// newAutoClient sends anthropic/* models to Anthropic when it is
// configured and everything else to OpenRouter.
func newAutoClient(cfg *config.Config, logger *slog.Logger) (llm.Client, error) {
	var fallback llm.Client
	orClient, orErr := newOpenRouterClient(cfg, logger)
	if orErr == nil {
		fallback = orClient
	}

	d := llm.NewDispatcher(fallback)
	anthClient, anthErr := newAnthropicClient(cfg)
	if anthErr == nil {
		d.Route("anthropic", anthClient)
	}

	if orErr != nil && anthErr != nil {
		return nil, orErr
	}
	logger.Debug("auto provider", "openrouter", orErr == nil, "anthropic", anthErr == nil)
	return d, nil
}
