package ai

import (
	"context"
	"errors"
	"time"
)

// Generator produces a single text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrDisabled is returned when no usable provider is configured.
var ErrDisabled = errors.New("text generator disabled")

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config selects and tunes a text generation provider.
type Config struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	Timeout     time.Duration

	// MaxRetries counts attempts, not retries after the first; <= 0 means 1.
	MaxRetries int
	// RPM and Burst enable client-side rate limiting when RPM > 0.
	RPM   int
	Burst int

	Fallback *Config
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
