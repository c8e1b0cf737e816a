package emotion

// Feature Aggregation
//
// Each cepstral stream (base, delta, delta-delta) varies over time; the
// classifier consumes a fixed-length clip descriptor instead. Aggregation
// reduces every stream to its per-coefficient mean and standard deviation
// across the time axis and concatenates the six 40-vectors in a fixed order:
//
//   [base-mean, base-std, delta-mean, delta-std, delta2-mean, delta2-std]
//
// This ordering is a hard contract with the scaler and classifier artifacts,
// which carry no self-describing schema. Position i of the output always
// corresponds to the same statistic of the same coefficient.

import (
	"errors"
	"math"
)

// FeatureVectorLength is the fixed clip descriptor length.
const FeatureVectorLength = NumCoefficients * 6

// ExtractFeatureVector derives the 240-length descriptor from a preprocessed
// (fixed-length, amplitude-normalized) waveform.
func ExtractFeatureVector(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples provided")
	}

	mfcc := ComputeMFCC(samples)
	delta := ComputeDelta(mfcc, 1)
	delta2 := ComputeDelta(mfcc, 2)
	if len(mfcc) != NumCoefficients || len(delta) != NumCoefficients || len(delta2) != NumCoefficients {
		return nil, errors.New("unexpected cepstral matrix shape")
	}

	features := make([]float64, 0, FeatureVectorLength)
	for _, matrix := range [][][]float64{mfcc, delta, delta2} {
		means, stds := rowMeanStd(matrix)
		features = append(features, means...)
		features = append(features, stds...)
	}

	if len(features) != FeatureVectorLength {
		return nil, errors.New("feature vector has unexpected length")
	}
	return features, nil
}

// rowMeanStd computes the mean and population standard deviation of each row
// across the time axis.
func rowMeanStd(matrix [][]float64) (means, stds []float64) {
	means = make([]float64, len(matrix))
	stds = make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, v := range row {
			sum += v
		}
		mean := sum / float64(len(row))

		var variance float64
		for _, v := range row {
			diff := v - mean
			variance += diff * diff
		}
		means[i] = mean
		stds[i] = math.Sqrt(variance / float64(len(row)))
	}
	return means, stds
}
