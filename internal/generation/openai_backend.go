package generation

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

var _ Backend = (*OpenAIBackend)(nil)

// OpenAIBackend генерирует документ через Chat Completions со строгим response_format.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIBackend создает клиента OpenAI. Пустой baseURL означает api.openai.com.
func NewOpenAIBackend(apiKey, baseURL, model string, temperature float32, httpClient *http.Client) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
	}
}

func (b *OpenAIBackend) Name() string  { return "openai" }
func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	schema := req.Schema
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: b.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: &schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResult{}, errEmptyResponse
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return CompletionResult{}, fmt.Errorf("model refused: %s", msg.Refusal)
	}
	if msg.Content == "" {
		return CompletionResult{}, errEmptyResponse
	}
	return CompletionResult{
		Content:          msg.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
