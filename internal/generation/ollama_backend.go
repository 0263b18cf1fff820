package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

var _ Backend = (*OllamaBackend)(nil)

// OllamaBackend генерирует документ локальной моделью, передавая схему в поле format.
type OllamaBackend struct {
	client      *api.Client
	model       string
	temperature float32
}

// NewOllamaBackend создает клиента Ollama. baseURL без суффикса /v1.
func NewOllamaBackend(baseURL, model string, temperature float32, httpClient *http.Client) (*OllamaBackend, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaBackend{
		client:      api.NewClient(parsed, httpClient),
		model:       model,
		temperature: temperature,
	}, nil
}

func (b *OllamaBackend) Name() string  { return "ollama" }
func (b *OllamaBackend) Model() string { return b.model }

func (b *OllamaBackend) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	format, err := json.Marshal(&req.Schema)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("marshal schema: %w", err)
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model: b.model,
		Messages: []api.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Stream:  &stream,
		Format:  format,
		Options: map[string]any{"temperature": b.temperature},
	}

	var (
		content strings.Builder
		result  CompletionResult
	)
	err = b.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		content.WriteString(r.Message.Content)
		if r.Done {
			result.PromptTokens = r.PromptEvalCount
			result.CompletionTokens = r.EvalCount
		}
		return nil
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("ollama chat: %w", err)
	}
	result.Content = strings.TrimSpace(content.String())
	if result.Content == "" {
		return CompletionResult{}, errEmptyResponse
	}
	return result, nil
}
