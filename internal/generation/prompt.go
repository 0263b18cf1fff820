package generation

import (
	_ "embed"
	"strings"
)

//go:embed prompts/plan_instructions.md
var planInstructions string

// SystemPrompt возвращает инструкции генерации плана.
func SystemPrompt() string {
	return strings.TrimSpace(planInstructions)
}

// UserPrompt оборачивает идею пользователя.
func UserPrompt(idea string) string {
	return "SaaS Idea: " + idea
}
