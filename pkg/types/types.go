package types

import "time"

// BiomassComponents holds the five estimated biomass quantities in grams.
// The remote model is instructed that DryTotal should approximate
// DryGreen + DryClover + DryDead and Gdm should approximate 0.85 * DryGreen,
// but these relations are advisory and never recomputed here.
type BiomassComponents struct {
	DryGreen  float64 `json:"dryGreen"`
	DryClover float64 `json:"dryClover"`
	DryDead   float64 `json:"dryDead"`
	DryTotal  float64 `json:"dryTotal"`
	Gdm       float64 `json:"gdm"`
}

// LocalPrediction is the outcome of one local model forward pass.
// Immutable after construction. A failed prediction carries OK=false and a
// diagnostic message instead of an error value; local inference is an
// optional enhancement and must never fault the caller.
type LocalPrediction struct {
	Raw        []float32         `json:"raw,omitempty"`
	Components BiomassComponents `json:"components"`
	Confidence float64           `json:"confidence"`
	OK         bool              `json:"ok"`
	Message    string            `json:"message,omitempty"`
}

// VisionResponse is the typed deserialization target for the remote model's
// JSON reply. The five biomass numbers and the confidence are pointers so a
// missing required field is distinguishable from an explicit zero.
type VisionResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DryGreen        *float64 `json:"dryGreen"`
	DryClover       *float64 `json:"dryClover"`
	DryDead         *float64 `json:"dryDead"`
	DryTotal        *float64 `json:"dryTotal"`
	Gdm             *float64 `json:"gdm"`
	Recommendations string   `json:"recommendations"`
	Confidence      *float64 `json:"confidence"`
}

// AnalysisResult is the final merged analysis record handed to the caller.
type AnalysisResult struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Timestamp       time.Time         `json:"timestamp"`
	Components      BiomassComponents `json:"components"`
	ImageBase64     string            `json:"imageBase64,omitempty"`
	Recommendations string            `json:"recommendations"`
	Confidence      float64           `json:"confidence"`
	Attempts        int               `json:"attempts,omitempty"`
}
