// Package tokenizer estimates token counts for text content using model
// vocabularies.
package tokenizer

import (
	"fmt"
	"strings"
)

const (
	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	Model string
}

// NewCounter returns a Counter for the requested model along with the resolved
// model name. Unknown models fall back to the default encoding.
func NewCounter(config Config) (Counter, string, error) {
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = defaultModel
	}
	counter, counterError := newOpenAICounter(strings.ToLower(model))
	if counterError != nil {
		return nil, "", fmt.Errorf("initialize tokenizer for model %s: %w", model, counterError)
	}
	return counter, model, nil
}
