package emotion

// PredictionResult packages the outcome of one classification request. It is
// always well-formed: on failure Valid is false and Error carries a
// human-readable reason; on success Confidence equals the probability of the
// predicted emotion and Probabilities covers every known label.
type PredictionResult struct {
	Emotion       string             `json:"emotion"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"allProbabilities"`
	Valid         bool               `json:"valid"`
	Error         string             `json:"error,omitempty"`
	LatencyMs     float64            `json:"latencyMs,omitempty"`
}

// ModelInfo exposes metadata about the loaded artifact set.
type ModelInfo struct {
	Labels        []string `json:"labels"`
	LabelCount    int      `json:"labelCount"`
	FeatureLength int      `json:"featureLength"`
}
