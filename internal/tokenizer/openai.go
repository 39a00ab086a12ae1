package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

type openAICounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// newOpenAICounter resolves the tiktoken encoding for the model, falling back
// to the default encoding when the model is not recognized.
func newOpenAICounter(model string) (Counter, error) {
	encoding, encodingError := tiktoken.EncodingForModel(model)
	if encodingError == nil && encoding != nil {
		return openAICounter{encoding: encoding, name: model}, nil
	}
	fallback, fallbackError := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackError != nil {
		return nil, fallbackError
	}
	return openAICounter{encoding: fallback, name: model}, nil
}

func (counter openAICounter) Name() string {
	return counter.name
}

func (counter openAICounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	tokenIdentifiers := counter.encoding.Encode(input, nil, nil)
	return len(tokenIdentifiers), nil
}
