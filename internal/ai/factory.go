package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the configured provider wrapped with rate limiting and retries,
// then chains the fallback provider when one is configured. A fallback that
// cannot be built is logged and skipped.
func New(ctx context.Context, cfg Config) (Generator, error) {
	primary, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Fallback == nil {
		return primary, nil
	}
	fallback, err := newProvider(ctx, *cfg.Fallback)
	if err != nil {
		logrus.WithError(err).WithField("provider", cfg.Fallback.Provider).Warn("fallback text generator unavailable")
		return primary, nil
	}
	return WithFallback(primary, fallback), nil
}

func newProvider(ctx context.Context, cfg Config) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOllama:
		gen, err = NewClient(cfg)
	case ProviderOpenAI:
		gen, err = NewChatModelGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		if errors.Is(err, ErrDisabled) {
			return nil, fmt.Errorf("%s: %w", cfg.Provider, err)
		}
		return nil, err
	}
	gen = WithRateLimit(gen, cfg.RPM, cfg.Burst)
	return WithRetry(gen, cfg.MaxRetries), nil
}
