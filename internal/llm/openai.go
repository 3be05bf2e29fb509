package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/provider"
)

// Config contains formatter configuration.
type Config struct {
	Provider    provider.LLMID // empty means provider.LLMOpenAI
	APIKey      string
	BaseURL     string // empty means the OpenAI default
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Formatter reformats raw transcripts into clean text using an OpenAI chat
// model. It implements provider.LLMService.
type Formatter struct {
	client openai.Client
	config Config
}

// NewFormatter creates a transcript formatter. Any OpenAI-compatible endpoint
// works: Groq is served by the same client with its base URL set.
func NewFormatter(cfg Config) *Formatter {
	if cfg.Provider == "" {
		cfg.Provider = provider.LLMOpenAI
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Formatter{
		client: openai.NewClient(opts...),
		config: cfg,
	}
}

// Provider returns the provider identifier.
func (f *Formatter) Provider() provider.LLMID {
	return f.config.Provider
}

// Format sends the transcript through the chat completion API with the given
// system prompt and returns the cleaned text.
func (f *Formatter) Format(ctx context.Context, systemPrompt, transcript string) (string, error) {
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: f.config.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(transcript),
		},
		Temperature: openai.Float(f.config.Temperature),
	}

	resp, err := f.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
