package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

const defaultMaxTokens = 4096

// AnthropicConfig contains configuration for creating an AnthropicClient.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// BaseURL overrides the API endpoint for the direct path.
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int64
}

// AnthropicClient talks to Claude directly or through Bedrock.
type AnthropicClient struct {
	inner     anthropic.Client
	bedrock   bool
	maxTokens int64
}

// NewAnthropicClient creates a new Anthropic API client. SDK retries are
// disabled so each Complete is one call.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}

	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicClient{
		inner:     anthropic.NewClient(opts...),
		bedrock:   cfg.UseAWSBedrock,
		maxTokens: maxTokens,
	}, nil
}

// Complete sends one Messages request.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	model := TranslateModel(req.Model)
	if c.bedrock {
		model = translateModelForBedrock(model)
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	var parts []string
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, text.Text)
		}
	}

	return &Response{
		Content: strings.Join(parts, ""),
		Model:   req.Model,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

// openRouterModels maps OpenRouter-style Anthropic ids to API model names.
var openRouterModels = map[string]anthropic.Model{
	"anthropic/claude-3.5-sonnet": anthropic.Model("claude-3-5-sonnet-latest"),
	"anthropic/claude-3.5-haiku":  anthropic.ModelClaude3_5Haiku20241022,
	"anthropic/claude-3.7-sonnet": anthropic.ModelClaude3_7Sonnet20250219,
	"anthropic/claude-sonnet-4":   anthropic.ModelClaudeSonnet4_20250514,
	"anthropic/claude-sonnet-4.5": anthropic.ModelClaudeSonnet4_5_20250929,
	"anthropic/claude-haiku-4.5":  anthropic.ModelClaudeHaiku4_5_20251001,
	"anthropic/claude-opus-4.1":   anthropic.ModelClaudeOpus4_1_20250805,
	"anthropic/claude-opus-4.5":   anthropic.ModelClaudeOpus4_5_20251101,
}

// TranslateModel converts an OpenRouter model id into an Anthropic model
// name. Unknown ids lose their "anthropic/" prefix and have dots replaced.
func TranslateModel(model string) anthropic.Model {
	if m, ok := openRouterModels[model]; ok {
		return m
	}
	if Provider(model) == "anthropic" {
		return anthropic.Model(strings.ReplaceAll(strings.TrimPrefix(model, "anthropic/"), ".", "-"))
	}
	if model == "" {
		return anthropic.ModelClaudeSonnet4_20250514
	}
	return anthropic.Model(model)
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock inference profile format.
// Bedrock uses cross-region inference profiles: us.anthropic.{model}-v1:0
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.Model("claude-3-5-sonnet-latest"): "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
		anthropic.ModelClaudeSonnet4_20250514:       "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929:     "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:      "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:       "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaudeOpus4_5_20251101:       "us.anthropic.claude-opus-4-5-20251101-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219:      "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:       "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}
