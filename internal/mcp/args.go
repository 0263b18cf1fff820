package mcp

import (
	"fmt"

	"sasselerator/internal/models"
)

// ValidationError - аргумент инструмента отсутствует или имеет неверный тип.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return models.ErrValidation }

// Args - аргументы вызова инструмента в том виде, в каком их прислал клиент.
type Args map[string]any

// optionalString возвращает строковый аргумент; null и отсутствие дают "".
func (a Args) optionalString(key string) (string, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Field: key, Reason: "must be a string"}
	}
	return s, nil
}

func (a Args) requiredString(key string) (string, error) {
	s, err := a.optionalString(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &ValidationError{Field: key, Reason: "is required"}
	}
	return s, nil
}

func (a Args) phase() (models.Phase, error) {
	s, err := a.optionalString("phase")
	if err != nil || s == "" {
		return "", err
	}
	if !models.IsValidPhase(s) {
		return "", &ValidationError{Field: "phase", Reason: "must be one of planning, development, testing, launch"}
	}
	return models.Phase(s), nil
}

func (a Args) priority() (models.Priority, error) {
	s, err := a.optionalString("priority")
	if err != nil || s == "" {
		return "", err
	}
	if !models.IsValidPriority(s) {
		return "", &ValidationError{Field: "priority", Reason: "must be one of high, medium, low"}
	}
	return models.Priority(s), nil
}
