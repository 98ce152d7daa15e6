package ai

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	initialBackoff = 2 * time.Second
	maxBackoff     = 10 * time.Second
)

type retrying struct {
	next     Generator
	attempts int
	backoff  time.Duration
}

// WithRetry retries transient provider failures (HTTP 429/500/503) with
// exponential backoff. attempts <= 1 returns next unchanged.
func WithRetry(next Generator, attempts int) Generator {
	if next == nil || attempts <= 1 {
		return next
	}
	return &retrying{next: next, attempts: attempts, backoff: initialBackoff}
}

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	delay := r.backoff
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		reply, err := r.next.Generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !shouldRetry(err) || attempt == r.attempts-1 {
			break
		}

		logrus.WithError(err).WithField("attempt", attempt+1).Debug("text generation failed; retrying")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return "", lastErr
}

// statusPattern matches both "ollama status 503" and go-openai's
// "status code: 503".
var statusPattern = regexp.MustCompile(`status(?: code)?:? (\d{3})`)

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "too many requests") {
		return true
	}
	for _, match := range statusPattern.FindAllStringSubmatch(msg, -1) {
		switch match[1] {
		case "429", "500", "502", "503", "504":
			return true
		}
	}
	return false
}

type rateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// WithRateLimit spaces calls to next to rpm requests per minute with the given
// burst. rpm <= 0 returns next unchanged.
func WithRateLimit(next Generator, rpm, burst int) Generator {
	if next == nil || rpm <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)}
}

func (r *rateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Generate(ctx, prompt)
}
