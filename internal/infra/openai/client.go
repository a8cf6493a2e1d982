package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

// Client выполняет Chat Completions запросы через официальный SDK.
type Client struct {
	sdk     oai.Client
	apiKey  string
	timeout time.Duration
}

// NewClient создаёт клиента OpenAI. Пустой baseURL означает api.openai.com.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// повтор выполняет цепочка суммаризации, а не SDK
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL+"/"))
	}
	return &Client{sdk: oai.NewClient(opts...), apiKey: apiKey, timeout: timeout}
}

// ChatCompletionRequest описывает тело запроса.
type ChatCompletionRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// ChatCompletionUsage описывает статистику использования токенов.
type ChatCompletionUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatCompletionResponse описывает ответ модели.
type ChatCompletionResponse struct {
	Content string
	Usage   ChatCompletionUsage
}

// CreateChatCompletion вызывает /chat/completions.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if c.apiKey == "" {
		return ChatCompletionResponse{}, fmt.Errorf("openai: %w: api key is empty", domain.ErrConfiguration)
	}

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, oai.SystemMessage(req.System))
	}
	messages = append(messages, oai.UserMessage(req.User))

	params := oai.ChatCompletionNewParams{
		Model:    oai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = oai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = oai.Float(req.Temperature)
	}

	start := time.Now()
	completion, err := c.sdk.Chat.Completions.New(ctx, params)
	metrics.ObserveNetworkRequest("openai", "chat_completions", req.Model, start, err)
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return ChatCompletionResponse{}, &domain.UpstreamError{Provider: "openai", Status: apiErr.StatusCode, Message: apiErr.Message}
		}
		return ChatCompletionResponse{}, fmt.Errorf("openai: do request: %w", err)
	}

	usage := ChatCompletionUsage{
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
	}
	metrics.ObserveLLMGeneration(req.Model, time.Since(start), usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)

	if len(completion.Choices) == 0 {
		return ChatCompletionResponse{Usage: usage}, fmt.Errorf("openai: %w: empty choices", domain.ErrUpstream)
	}
	return ChatCompletionResponse{Content: completion.Choices[0].Message.Content, Usage: usage}, nil
}

func (u ChatCompletionUsage) String() string {
	return fmt.Sprintf("prompt=%d completion=%d total=%d", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}
