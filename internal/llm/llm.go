package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
)

// Request is a single prompt for a language model.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Caller is the external collaborator boundary: one blocking call that
// returns the model's text content or an error. Implementations normalize
// provider-specific response shapes (e.g. reasoning emitted in a secondary
// channel) into the returned content.
type Caller interface {
	Name() string
	Call(ctx context.Context, req Request) (string, error)
}

// ProviderConfig selects and configures a model provider for one reviewer
// or generator role.
type ProviderConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider    string
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// New builds a Caller for the given provider config.
func New(cfg ProviderConfig) (Caller, error) {
	switch cfg.Provider {
	case "", "openai":
		return newOpenAICaller(cfg), nil
	case "anthropic":
		return newAnthropicCaller(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// openaiCaller talks to any OpenAI-compatible chat completion endpoint
// (Kimi via NVIDIA NIM, Gemini's OpenAI-compat layer, OpenAI itself).
type openaiCaller struct {
	name   string
	client *openai.Client
	cfg    ProviderConfig
}

func newOpenAICaller(cfg ProviderConfig) *openaiCaller {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openaiCaller{
		name:   cfg.Name,
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

func (c *openaiCaller) Name() string { return c.name }

func (c *openaiCaller) Call(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        c.cfg.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", c.name)
	}

	msg := resp.Choices[0].Message
	content := msg.Content

	// Thinking-mode models may leave the final content empty and put their
	// output in the reasoning channel instead.
	if strings.TrimSpace(content) == "" && msg.ReasoningContent != "" {
		content = msg.ReasoningContent
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%s: empty response content", c.name)
	}
	return content, nil
}

// anthropicCaller talks to the Anthropic Messages API.
type anthropicCaller struct {
	name  string
	api   *anthropic.Client
	model anthropic.Model
	cfg   ProviderConfig
}

func newAnthropicCaller(cfg ProviderConfig) *anthropicCaller {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &anthropicCaller{
		name:  cfg.Name,
		api:   &client,
		model: anthropic.Model(cfg.Model),
		cfg:   cfg,
	}
}

func (c *anthropicCaller) Name() string { return c.name }

func (c *anthropicCaller) Call(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s messages API: %w", c.name, err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: no text content in response", c.name)
	}
	return text, nil
}
