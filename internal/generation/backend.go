package generation

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var errEmptyResponse = errors.New("backend returned an empty response")

// CompletionRequest - запрос структурированной генерации.
type CompletionRequest struct {
	System     string
	User       string
	SchemaName string
	Schema     jsonschema.Definition
}

// CompletionResult - сырой JSON ответа и счетчики токенов (0, если бэкенд их не сообщил).
type CompletionResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Backend - внешний бэкенд генерации, ограниченный JSON-схемой.
type Backend interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	Name() string
	Model() string
}
