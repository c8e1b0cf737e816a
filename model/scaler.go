package model

import (
	"fmt"
	"math"
)

// StandardScaler standardizes a feature vector with pre-fitted per-feature
// offsets and scales: out[i] = (in[i] - Mean[i]) / Scale[i]. The parameters
// are read-only after load and shared by all requests.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FeatureCount returns the feature width the scaler was fit on.
func (s *StandardScaler) FeatureCount() int {
	return len(s.Mean)
}

// Transform applies the affine transform to a copy of the input.
func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(features))
	}
	scaled := make([]float64, len(features))
	for i, v := range features {
		scaled[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return scaled, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("scaler has no parameters")
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler has %d means but %d scales", len(s.Mean), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("scaler has invalid scale at index %d: %v", i, v)
		}
	}
	for i, v := range s.Mean {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("scaler has invalid mean at index %d: %v", i, v)
		}
	}
	return nil
}
