// Package analyzer drives the hybrid analysis pipeline: optional local
// inference, prompt construction, the remote vision call with bounded
// retries, and assembly of the final result.
package analyzer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Evils19/BioMasa/pkg/client"
	"github.com/Evils19/BioMasa/pkg/predictor"
	"github.com/Evils19/BioMasa/pkg/prompt"
	"github.com/Evils19/BioMasa/pkg/types"
)

// maxRetries bounds transient-failure retries: 2 retries, 3 total attempts.
const maxRetries = 2

// ErrResponseParse reports a remote reply that violates the JSON contract.
// Never retried: a deterministic parse fault would only mask a prompt bug.
var ErrResponseParse = errors.New("remote response violates the JSON contract")

// TimeoutError is the terminal failure after the retry budget is spent on
// transient faults.
type TimeoutError struct {
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// Config tunes the retry loop and result assembly.
type Config struct {
	// RetryBaseDelay is multiplied by the attempt index for linear backoff.
	RetryBaseDelay time.Duration
	// KeepImage embeds a base64 copy of the input in the result.
	KeepImage bool
}

// Analyzer coordinates the local predictor and a remote vision backend.
// Safe for concurrent use: all per-request state lives on the stack.
type Analyzer struct {
	predictor predictor.Predictor
	vision    client.VisionClient
	prompts   *prompt.Builder
	config    Config
}

// New creates an analyzer with default configuration.
func New(pred predictor.Predictor, vision client.VisionClient) *Analyzer {
	return NewWithConfig(pred, vision, Config{
		RetryBaseDelay: time.Second,
		KeepImage:      true,
	})
}

// NewWithConfig creates an analyzer with custom configuration.
func NewWithConfig(pred predictor.Predictor, vision client.VisionClient, config Config) *Analyzer {
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = time.Second
	}
	return &Analyzer{
		predictor: pred,
		vision:    vision,
		prompts:   prompt.NewBuilder(),
		config:    config,
	}
}

// Analyze runs the full pipeline for one image. Local inference failures
// are absorbed (the hint is simply omitted); remote failures are classified
// and either retried with backoff or surfaced immediately.
func (a *Analyzer) Analyze(ctx context.Context, image []byte) (*types.AnalysisResult, error) {
	var hint *types.LocalPrediction
	if local := a.predictor.Predict(image); local.OK {
		hint = &local
	} else if local.Message != "" {
		log.Printf("local prediction unavailable: %s", local.Message)
	}

	promptText := a.prompts.Build(hint)

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		attempts = attempt

		raw, err := a.vision.Analyze(ctx, image, promptText)
		if err == nil {
			resp, perr := parseResponse(raw)
			if perr != nil {
				return nil, perr
			}
			result := a.buildResult(resp, image, attempts)
			return &result, nil
		}

		if !transient(err) {
			return nil, err
		}
		lastErr = err

		if attempt <= maxRetries {
			delay := time.Duration(attempt) * a.config.RetryBaseDelay
			log.Printf("remote analysis attempt %d failed (%v), retrying in %s", attempt, err, delay)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", client.ErrTransport, ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return nil, &TimeoutError{Attempts: attempts, Last: lastErr}
}

// transient reports whether a remote failure is worth another attempt.
func transient(err error) bool {
	return errors.Is(err, client.ErrTransport) || errors.Is(err, client.ErrEmptyResponse)
}

// parseResponse deserializes the candidate JSON text. Field matching is
// case-insensitive (encoding/json default); the five biomass numbers and
// the confidence are required.
func parseResponse(raw string) (*types.VisionResponse, error) {
	var resp types.VisionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	var missing []string
	for name, v := range map[string]*float64{
		"DryGreen":   resp.DryGreen,
		"DryClover":  resp.DryClover,
		"DryDead":    resp.DryDead,
		"DryTotal":   resp.DryTotal,
		"Gdm":        resp.Gdm,
		"Confidence": resp.Confidence,
	} {
		if v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrResponseParse, strings.Join(missing, ", "))
	}
	return &resp, nil
}

// buildResult copies the parsed response into the final record. Component
// values are taken verbatim; the prompt contract, not this code, holds the
// remote model to non-negative realistic numbers.
func (a *Analyzer) buildResult(resp *types.VisionResponse, image []byte, attempts int) types.AnalysisResult {
	id := resp.ID
	if id == "" {
		id = uuid.NewString()
	}

	result := types.AnalysisResult{
		ID:          id,
		Title:       resp.Title,
		Description: resp.Description,
		Timestamp:   time.Now().UTC(),
		Components: types.BiomassComponents{
			DryGreen:  *resp.DryGreen,
			DryClover: *resp.DryClover,
			DryDead:   *resp.DryDead,
			DryTotal:  *resp.DryTotal,
			Gdm:       *resp.Gdm,
		},
		Recommendations: resp.Recommendations,
		Confidence:      *resp.Confidence,
		Attempts:        attempts,
	}
	if a.config.KeepImage {
		result.ImageBase64 = base64.StdEncoding.EncodeToString(image)
	}
	return result
}
