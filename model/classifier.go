package model

import (
	"fmt"
	"math"
)

// LogisticClassifier is a pre-fitted multinomial logistic regression model:
// one coefficient row and intercept per class, with softmax probability
// decoding. Classification is deterministic and side-effect free, so a
// single instance serves all concurrent requests.
type LogisticClassifier struct {
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
}

// ClassCount returns the number of classes the model was fit on.
func (c *LogisticClassifier) ClassCount() int {
	return len(c.Intercepts)
}

// FeatureCount returns the feature width the model was fit on.
func (c *LogisticClassifier) FeatureCount() int {
	if len(c.Coefficients) == 0 {
		return 0
	}
	return len(c.Coefficients[0])
}

// Classify returns the predicted class index and the full probability
// distribution for a scaled feature vector. Probabilities sum to 1 up to
// floating-point rounding.
func (c *LogisticClassifier) Classify(features []float64) (int, []float64, error) {
	if len(features) != c.FeatureCount() {
		return 0, nil, fmt.Errorf("classifier expects %d features, got %d", c.FeatureCount(), len(features))
	}

	scores := make([]float64, len(c.Intercepts))
	for k, row := range c.Coefficients {
		sum := c.Intercepts[k]
		for i, w := range row {
			sum += w * features[i]
		}
		if math.IsNaN(sum) || math.IsInf(sum, 0) {
			return 0, nil, fmt.Errorf("non-finite decision score for class %d", k)
		}
		scores[k] = sum
	}

	probabilities := softmax(scores)

	best := 0
	for k, p := range probabilities {
		if p > probabilities[best] {
			best = k
		}
	}
	return best, probabilities, nil
}

// softmax converts decision scores into a probability distribution. The
// maximum score is subtracted first to keep the exponentials bounded.
func softmax(scores []float64) []float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	probs := make([]float64, len(scores))
	var total float64
	for k, s := range scores {
		e := math.Exp(s - maxScore)
		probs[k] = e
		total += e
	}
	for k := range probs {
		probs[k] /= total
	}
	return probs
}

func (c *LogisticClassifier) validate() error {
	if len(c.Coefficients) == 0 || len(c.Intercepts) == 0 {
		return fmt.Errorf("classifier has no parameters")
	}
	if len(c.Coefficients) != len(c.Intercepts) {
		return fmt.Errorf("classifier has %d coefficient rows but %d intercepts",
			len(c.Coefficients), len(c.Intercepts))
	}
	if len(c.Coefficients) < 2 {
		return fmt.Errorf("classifier needs at least 2 classes, has %d", len(c.Coefficients))
	}
	width := len(c.Coefficients[0])
	if width == 0 {
		return fmt.Errorf("classifier has empty coefficient rows")
	}
	for k, row := range c.Coefficients {
		if len(row) != width {
			return fmt.Errorf("classifier row %d has %d coefficients, expected %d", k, len(row), width)
		}
	}
	return nil
}
