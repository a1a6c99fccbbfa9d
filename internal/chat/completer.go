package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Defaults for [AnthropicCompleter].
const (
	DefaultModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens = 800
)

// ErrMissingCredentials is returned when no API key is configured. The
// upstream API is not called.
var ErrMissingCredentials = errors.New("chat: missing API key (set ANTHROPIC_API_KEY)")

// Completer turns one user message into one assistant reply.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// AnthropicCompleter is a [Completer] backed by the Anthropic Messages API.
type AnthropicCompleter struct {
	client     anthropic.Client
	apiKey     string
	model      string
	maxTokens  int64
	reqOptions []option.RequestOption
}

// CompleterOption configures an [AnthropicCompleter].
type CompleterOption func(*AnthropicCompleter)

// WithModel sets the model name. Empty values are ignored.
func WithModel(model string) CompleterOption {
	return func(c *AnthropicCompleter) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens sets the reply token limit. Non-positive values are ignored.
func WithMaxTokens(n int64) CompleterOption {
	return func(c *AnthropicCompleter) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithRequestOptions appends SDK request options, such as a base URL.
func WithRequestOptions(opts ...option.RequestOption) CompleterOption {
	return func(c *AnthropicCompleter) {
		c.reqOptions = append(c.reqOptions, opts...)
	}
}

// NewAnthropicCompleter creates a completer using apiKey. An empty key is
// accepted; every call then fails with [ErrMissingCredentials].
func NewAnthropicCompleter(apiKey string, opts ...CompleterOption) *AnthropicCompleter {
	c := &AnthropicCompleter{
		apiKey:    apiKey,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if apiKey != "" {
		opts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, c.reqOptions...)
		c.client = anthropic.NewClient(opts...)
	}
	return c
}

// Model returns the configured model name.
func (c *AnthropicCompleter) Model() string {
	return c.model
}

// Complete sends message as a single user turn and returns the text of the
// reply.
func (c *AnthropicCompleter) Complete(ctx context.Context, message string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingCredentials
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat: messages api: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}

// upstreamStatus returns the HTTP status of an API error wrapped in err.
func upstreamStatus(err error) (int, bool) {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	return apiErr.StatusCode, true
}
