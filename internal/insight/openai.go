package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stocksense/backend-go/internal/config"
)

// OpenAIProvider implements TextInsightProvider against the OpenAI chat
// completion API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIProvider(cfg config.InsightConfig) (*OpenAIProvider, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai api key must be provided")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIProvider{
		client:  openai.NewClient(cfg.OpenAIAPIKey),
		model:   model,
		timeout: timeout,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, ic Context) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(ic.Kind),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(ic),
			},
		},
		Temperature: 0.4,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemote, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrRemote)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
