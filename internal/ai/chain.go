package ai

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

type generatorChain struct {
	primary  Generator
	fallback Generator
}

// WithFallback returns a generator that first tries the primary provider and
// falls back when it fails or returns only whitespace.
func WithFallback(primary, fallback Generator) Generator {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &generatorChain{primary: primary, fallback: fallback}
}

func (c *generatorChain) Generate(ctx context.Context, prompt string) (string, error) {
	reply, err := c.primary.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(reply) != "" {
		return reply, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		logrus.WithError(err).Warn("primary text generator failed; using fallback")
	}
	return c.fallback.Generate(ctx, prompt)
}
