// Package predictor runs the local ONNX biomass regression model.
//
// The model is loaded once at startup. When no artifact can be loaded the
// package degrades to an Unavailable predictor that answers every call with
// a failed LocalPrediction at zero cost; callers never see a raised fault
// from local inference.
package predictor

import (
	"fmt"
	"log"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Evils19/BioMasa/pkg/processing"
	"github.com/Evils19/BioMasa/pkg/types"
)

// outputCount is the length of the model's flat output vector:
// green, clover, dead, total, gdm, in that order.
const outputCount = 5

// Predictor produces local biomass estimates from raw image bytes.
// Predict never returns an error; failures come back as LocalPrediction
// values with OK=false.
type Predictor interface {
	Available() bool
	Predict(image []byte) types.LocalPrediction
}

// loadModel is indirected so session construction can be stubbed in tests.
var loadModel = newLocal

// New loads the model from modelPath, falling back to fallbackPath, and
// returns the matching Predictor. Both paths failing yields an Unavailable
// predictor for the process lifetime; no reload is attempted per call.
func New(modelPath, fallbackPath string) Predictor {
	if modelPath == "" {
		return &Unavailable{Reason: "no local model configured"}
	}

	local, err := loadModel(modelPath)
	if err == nil {
		return local
	}
	log.Printf("local model %s unavailable: %v", modelPath, err)

	if fallbackPath != "" {
		local, ferr := loadModel(fallbackPath)
		if ferr == nil {
			return local
		}
		log.Printf("fallback model %s unavailable: %v", fallbackPath, ferr)
	}

	return &Unavailable{Reason: fmt.Sprintf("local model could not be loaded: %v", err)}
}

// Local wraps an ONNX Runtime session over the biomass regression model.
type Local struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	processor    *processing.Processor

	// the session reuses its input/output tensors across runs
	mu sync.Mutex
}

func newLocal(modelPath string) (*Local, error) {
	// InitializeEnvironment errors on a second call, and a failed primary
	// load may already have initialized it before the fallback attempt
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize ONNX environment: %w", err)
		}
	}

	inputShape := ort.NewShape(1, processing.TensorChannels, processing.ModelImageSize, processing.ModelImageSize)
	outputShape := ort.NewShape(1, outputCount)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create ONNX session: %w", err)
	}

	return &Local{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		processor:    processing.NewProcessor(),
	}, nil
}

// Available reports that the model loaded successfully.
func (l *Local) Available() bool { return true }

// Predict decodes the image, runs a forward pass and maps the output
// vector to the five biomass quantities.
func (l *Local) Predict(image []byte) types.LocalPrediction {
	tensor, err := l.processor.Tensor(image)
	if err != nil {
		return failed(fmt.Sprintf("preprocess: %v", err))
	}

	l.mu.Lock()
	copy(l.inputTensor.GetData(), tensor)
	if err := l.session.Run(); err != nil {
		l.mu.Unlock()
		return failed(fmt.Sprintf("inference: %v", err))
	}
	raw := make([]float32, len(l.outputTensor.GetData()))
	copy(raw, l.outputTensor.GetData())
	l.mu.Unlock()

	return FromRaw(raw)
}

// Close releases the ONNX session and tensors.
func (l *Local) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inputTensor != nil {
		l.inputTensor.Destroy()
	}
	if l.outputTensor != nil {
		l.outputTensor.Destroy()
	}
	if l.session != nil {
		l.session.Destroy()
	}
}

// Unavailable is the null predictor used when no model artifact loaded.
type Unavailable struct {
	Reason string
}

// Available reports that no local model is loaded.
func (u *Unavailable) Available() bool { return false }

// Predict returns a failed prediction carrying the load diagnostic.
func (u *Unavailable) Predict([]byte) types.LocalPrediction {
	return failed(u.Reason)
}

// FromRaw maps a raw output vector positionally to the five quantities,
// flooring negatives at zero and padding a short vector with zeros.
func FromRaw(raw []float32) types.LocalPrediction {
	at := func(i int) float64 {
		if i >= len(raw) {
			return 0
		}
		if raw[i] < 0 {
			return 0
		}
		return float64(raw[i])
	}

	return types.LocalPrediction{
		Raw: raw,
		Components: types.BiomassComponents{
			DryGreen:  at(0),
			DryClover: at(1),
			DryDead:   at(2),
			DryTotal:  at(3),
			Gdm:       at(4),
		},
		Confidence: Confidence(raw),
		OK:         true,
	}
}

// Confidence derives a heuristic confidence from the spread of the raw
// output vector: 1/(1+variance), clamped to [0.10, 0.95]. Low variance is
// read as higher confidence. A crude signal, not a calibrated probability.
func Confidence(raw []float32) float64 {
	if len(raw) == 0 {
		return 0.10
	}

	var mean float64
	for _, v := range raw {
		mean += float64(v)
	}
	mean /= float64(len(raw))

	var variance float64
	for _, v := range raw {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(raw))

	conf := 1.0 / (1.0 + variance)
	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0.10 {
		conf = 0.10
	}
	return conf
}

func failed(msg string) types.LocalPrediction {
	return types.LocalPrediction{OK: false, Message: msg}
}
