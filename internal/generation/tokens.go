package generation

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter оценивает число токенов текста.
type TokenCounter func(text string) int

// NewTiktokenCounter возвращает счетчик для модели, при неизвестной модели - cl100k_base.
// tiktoken-go скачивает словарь при первом обращении, поэтому счетчик опционален.
func NewTiktokenCounter(model string) (TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load tokenizer for %s: %w", model, err)
		}
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}
