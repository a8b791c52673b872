package entity

import (
	"errors"
	"fmt"
)

// Domain errors for content generation
var (
	ErrEmptyTopic     = errors.New("topic is required")
	ErrEmptyProfile   = errors.New("headline or about section is required")
	ErrInvalidTone    = errors.New("invalid tone")
	ErrInvalidLength  = errors.New("invalid length, use Short, Medium or Long")
	ErrInvalidBackend = errors.New("invalid backend, use gemini or deepseek")
	ErrInvalidDataURI = errors.New("invalid image data URI")

	ErrImageGeneration = errors.New("image generation failed")
)

// Kind classifies a generation failure
type Kind string

const (
	KindMissingKey Kind = "missing_key"
	KindVendor     Kind = "vendor"
	KindParse      Kind = "parse"
)

// GenerationError is returned by text generation and profile audits
type GenerationError struct {
	Kind    Kind
	Backend Backend
	Err     error
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case KindMissingKey:
		return fmt.Sprintf("%s API key is missing", e.Backend)
	case KindParse:
		return fmt.Sprintf("could not read %s response: %v", e.Backend, e.Err)
	default:
		if e.Err == nil {
			return fmt.Sprintf("%s request failed", e.Backend)
		}
		return e.Err.Error()
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a GenerationError of the given kind
func IsKind(err error, kind Kind) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == kind
}
