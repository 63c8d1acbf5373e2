// Package client defines the vision backend contract shared by the
// OpenAI-compatible and Ollama clients, together with the input
// preconditions and response sanitation both backends apply.
package client

import (
	"context"
	"errors"
)

// VisionClient sends one image plus an instruction prompt to a remote
// vision-language model and returns the candidate JSON text extracted from
// its reply. Implementations must validate the image with ValidateImage
// before any network call and run the reply through ExtractJSON.
type VisionClient interface {
	Analyze(ctx context.Context, image []byte, prompt string) (string, error)
}

// Failure classes for a remote analysis call. The orchestrator retries
// transport faults and empty responses; service faults surface immediately.
var (
	ErrEmptyImage    = errors.New("image data is empty")
	ErrCorruptImage  = errors.New("image data too small to be a valid image")
	ErrEmptyResponse = errors.New("remote model returned no usable content")
	ErrTransport     = errors.New("remote transport failure")
	ErrService       = errors.New("remote service failure")
)
