package provider

import (
	"context"
	"errors"
	"os"

	"github.com/dgp-ops/askdgp/config"
	openai_provider "github.com/dgp-ops/askdgp/provider/openai"
)

// Client represents different language-generation providers.
type Client string

const (
	OpenAI Client = "openai"
)

// ComposeInput is the structured input to the response composer. Prompt
// formatting is a presentation concern of the concrete provider.
type ComposeInput = openai_provider.ComposeInput

// Provider is the language-generation collaborator: it turns a query, the
// retrieved candidates and recent conversation context into prose, and
// rewords topic labels into questions for the suggestion UI. Any error it
// returns is recoverable; callers surface it as a normal conversation turn.
type Provider interface {
	Compose(ctx context.Context, in ComposeInput) (string, error)
	TopicQuestion(ctx context.Context, label string) (string, error)
}

// NewProvider creates a language-generation client from configuration. The
// API key falls back to OPENAI_API_KEY when not configured.
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case OpenAI:
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("llm.api_key or OPENAI_API_KEY not set")
		}
		return openai_provider.NewOpenAIClient(
			apiKey,
			cfg.Model,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
