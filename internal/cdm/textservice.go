package cdm

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DefaultGenerateTimeout bounds one text-generation call.
const DefaultGenerateTimeout = 120 * time.Second

// ErrNoGenerator is returned when no text service is configured.
var ErrNoGenerator = errors.New("text generator not configured")

// errEmptyReply makes a blank completion take the caller's failure path.
var errEmptyReply = errors.New("text generator returned an empty reply")

// TextGenerator produces a single completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// textService applies the per-call timeout to a TextGenerator.
type textService struct {
	gen     TextGenerator
	timeout time.Duration
}

func newTextService(gen TextGenerator, timeout time.Duration) textService {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return textService{gen: gen, timeout: timeout}
}

func (s textService) generate(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", ErrNoGenerator
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	reply, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errEmptyReply
	}
	return reply, nil
}
