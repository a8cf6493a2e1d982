package summarizer

import (
	"context"
	"fmt"
	"strings"

	"industry-mailer/internal/domain"
	openai "industry-mailer/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI реализует Provider через OpenAI Chat Completions.
type OpenAI struct {
	client chatClient
	model  string
}

// NewOpenAI создаёт провайдер суммаризации.
func NewOpenAI(client chatClient, model string) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{client: client, model: model}
}

// Name возвращает имя провайдера.
func (s *OpenAI) Name() string { return "openai" }

// SummarizeArticle просит модель сжать статью в одно предложение.
func (s *OpenAI) SummarizeArticle(ctx context.Context, article domain.Article) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		User:        buildPrompt(article),
		Temperature: 0.2,
		MaxTokens:   60,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
