package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	defaultOpenAIModel = "gpt-4.1-mini"
	systemPrompt       = "You are a customs declaration review assistant. Follow the requested response format exactly."
)

// chatGenerator is the subset of model.BaseChatModel used here.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ChatModelGenerator drives an OpenAI-compatible chat model through eino.
type ChatModelGenerator struct {
	chat        chatGenerator
	temperature float32
}

// NewChatModelGenerator builds the eino OpenAI chat model. An empty API key
// disables the provider.
func NewChatModelGenerator(ctx context.Context, cfg Config) (*ChatModelGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		modelName = defaultOpenAIModel
	}
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: strings.TrimSpace(cfg.BaseURL),
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Model:   modelName,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return newChatModelGenerator(chat, cfg.Temperature), nil
}

func newChatModelGenerator(chat chatGenerator, temperature float64) *ChatModelGenerator {
	return &ChatModelGenerator{chat: chat, temperature: float32(temperature)}
}

// Generate sends prompt as a single user turn.
func (g *ChatModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.chat == nil {
		return "", ErrDisabled
	}
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: prompt},
	}
	var opts []model.Option
	if g.temperature > 0 {
		opts = append(opts, model.WithTemperature(g.temperature))
	}
	resp, err := g.chat.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("chat model: %w", err)
	}
	if resp == nil {
		return "", errors.New("chat model returned no message")
	}
	return strings.TrimSpace(resp.Content), nil
}
