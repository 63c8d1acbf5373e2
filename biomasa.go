// Package biomasa estimates pasture biomass components from photographs.
//
// It combines two inference backends: a local ONNX regression model that
// produces five biomass quantities from a normalized image tensor, and a
// remote vision-language model queried over a chat endpoint. The local
// estimate, when available, is folded into the remote prompt as a hint; the
// remote reply is the authoritative source of the final numbers.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/Evils19/BioMasa"
//		"github.com/Evils19/BioMasa/pkg/config"
//	)
//
//	func main() {
//		app, err := biomasa.NewFromConfig(config.Default())
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer app.Close()
//
//		result, err := app.AnalyzeFile(context.Background(), "pasture.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("total dry mass: %.1f g (confidence %.2f)\n",
//			result.Components.DryTotal, result.Confidence)
//	}
//
// The package layers as follows:
//
// 1. Processing (pkg/processing): image decoding and tensor construction
// 2. Predictor (pkg/predictor): local ONNX inference with graceful fallback
// 3. Prompt (pkg/prompt): the remote model's instruction contract
// 4. Clients (pkg/openai, pkg/ollama): vision backend implementations
// 5. Analyzer (pkg/analyzer): orchestration, retries, result assembly
//
// The local model is strictly optional: when no artifact loads, analysis
// runs remote-only and still completes end to end.
package biomasa

import (
	"context"
	"fmt"
	"os"

	"github.com/Evils19/BioMasa/pkg/analyzer"
	"github.com/Evils19/BioMasa/pkg/client"
	"github.com/Evils19/BioMasa/pkg/config"
	"github.com/Evils19/BioMasa/pkg/ollama"
	"github.com/Evils19/BioMasa/pkg/openai"
	"github.com/Evils19/BioMasa/pkg/predictor"
	"github.com/Evils19/BioMasa/pkg/types"
)

// Version of the biomasa library
const Version = "1.0.0"

// App wires the local predictor, the remote vision backend and the
// orchestrator according to one configuration.
type App struct {
	predictor predictor.Predictor
	analyzer  *analyzer.Analyzer
}

// NewFromConfig constructs a ready-to-use App. A missing or broken local
// model artifact degrades to remote-only analysis instead of failing.
func NewFromConfig(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	vision, err := newVisionClient(cfg)
	if err != nil {
		return nil, err
	}

	pred := predictor.New(cfg.Local.ModelPath, cfg.Local.FallbackPath)

	a := analyzer.NewWithConfig(pred, vision, analyzer.Config{
		RetryBaseDelay: cfg.RetryBaseDelay(),
		KeepImage:      cfg.Analysis.KeepImage,
	})

	return &App{predictor: pred, analyzer: a}, nil
}

func newVisionClient(cfg *config.Config) (client.VisionClient, error) {
	switch cfg.Remote.Backend {
	case "ollama":
		return ollama.NewClient(cfg.Remote.URL, cfg.Remote.Model)
	default:
		return openai.NewClient(cfg.Remote.URL, cfg.APIKey(), cfg.Remote.Model)
	}
}

// LocalModelAvailable reports whether the local ONNX model loaded.
func (a *App) LocalModelAvailable() bool {
	return a.predictor.Available()
}

// AnalyzeBytes runs the full pipeline on raw image bytes.
func (a *App) AnalyzeBytes(ctx context.Context, image []byte) (*types.AnalysisResult, error) {
	return a.analyzer.Analyze(ctx, image)
}

// AnalyzeFile runs the full pipeline on an image file.
func (a *App) AnalyzeFile(ctx context.Context, path string) (*types.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return a.analyzer.Analyze(ctx, data)
}

// Close releases the local model resources, if any.
func (a *App) Close() {
	if local, ok := a.predictor.(*predictor.Local); ok {
		local.Close()
	}
}
