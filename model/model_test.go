package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestStandardScalerTransform(t *testing.T) {
	t.Parallel()

	scaler := &StandardScaler{
		Mean:  []float64{1, 2, 3},
		Scale: []float64{2, 4, 0.5},
	}
	out, err := scaler.Transform([]float64{3, 2, 4})
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	want := []float64{1, 0, 2}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Fatalf("unexpected value at %d: got %f, want %f", i, out[i], want[i])
		}
	}

	if _, err := scaler.Transform([]float64{1, 2}); err == nil {
		t.Fatal("expected error for wrong feature width")
	}
}

func TestStandardScalerValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		scaler StandardScaler
	}{
		{"empty", StandardScaler{}},
		{"length mismatch", StandardScaler{Mean: []float64{1, 2}, Scale: []float64{1}}},
		{"zero scale", StandardScaler{Mean: []float64{1}, Scale: []float64{0}}},
		{"nan scale", StandardScaler{Mean: []float64{1}, Scale: []float64{math.NaN()}}},
		{"inf mean", StandardScaler{Mean: []float64{math.Inf(1)}, Scale: []float64{1}}},
	}
	for _, c := range cases {
		if err := c.scaler.validate(); err == nil {
			t.Fatalf("expected validation failure for %s scaler", c.name)
		}
	}
}

func TestClassifierProbabilities(t *testing.T) {
	t.Parallel()

	classifier := &LogisticClassifier{
		Coefficients: [][]float64{
			{1, 0},
			{0, 1},
			{-1, -1},
		},
		Intercepts: []float64{0, 0.5, 0},
	}

	index, probs, err := classifier.Classify([]float64{2, 0})
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	var sum float64
	best := 0
	for k, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("probability %d out of range: %f", k, p)
		}
		sum += p
		if p > probs[best] {
			best = k
		}
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("probabilities sum to %f, expected 1", sum)
	}
	if index != best {
		t.Fatalf("predicted index %d is not the argmax %d", index, best)
	}
	// Score for class 0 is 2, class 1 is 0.5, class 2 is -2.
	if index != 0 {
		t.Fatalf("expected class 0 to win, got %d", index)
	}
}

func TestClassifierRejectsBadInput(t *testing.T) {
	t.Parallel()

	classifier := &LogisticClassifier{
		Coefficients: [][]float64{{1, 0}, {0, 1}},
		Intercepts:   []float64{0, 0},
	}

	if _, _, err := classifier.Classify([]float64{1}); err == nil {
		t.Fatal("expected error for wrong feature width")
	}
	if _, _, err := classifier.Classify([]float64{math.NaN(), 0}); err == nil {
		t.Fatal("expected error for non-finite score")
	}
	if _, _, err := classifier.Classify([]float64{math.Inf(1), 0}); err == nil {
		t.Fatal("expected error for infinite score")
	}
}

func TestClassifierValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		classifier LogisticClassifier
	}{
		{"empty", LogisticClassifier{}},
		{"row/intercept mismatch", LogisticClassifier{
			Coefficients: [][]float64{{1}, {2}},
			Intercepts:   []float64{0},
		}},
		{"single class", LogisticClassifier{
			Coefficients: [][]float64{{1}},
			Intercepts:   []float64{0},
		}},
		{"ragged rows", LogisticClassifier{
			Coefficients: [][]float64{{1, 2}, {1}},
			Intercepts:   []float64{0, 0},
		}},
	}
	for _, c := range cases {
		if err := c.classifier.validate(); err == nil {
			t.Fatalf("expected validation failure for %s classifier", c.name)
		}
	}
}

func TestLabelEncoder(t *testing.T) {
	t.Parallel()

	encoder := &LabelEncoder{Classes: []string{"angry", "happy", "sad"}}

	label, err := encoder.Decode(1)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if label != "happy" {
		t.Fatalf("expected happy, got %q", label)
	}

	if _, err := encoder.Decode(-1); err == nil {
		t.Fatal("expected error for negative index")
	}
	if _, err := encoder.Decode(3); err == nil {
		t.Fatal("expected error for out-of-range index")
	}

	if err := (&LabelEncoder{}).validate(); err == nil {
		t.Fatal("expected validation failure for empty encoder")
	}
	if err := (&LabelEncoder{Classes: []string{"a", "a"}}).validate(); err == nil {
		t.Fatal("expected validation failure for duplicate labels")
	}
	if err := (&LabelEncoder{Classes: []string{"a", ""}}).validate(); err == nil {
		t.Fatal("expected validation failure for empty label")
	}
}

// writeArtifacts persists a consistent artifact set with the given shape and
// returns its paths.
func writeArtifacts(t *testing.T, dir string, classes []string, features int) Paths {
	t.Helper()

	paths := DefaultPaths(dir)

	mean := "["
	scale := "["
	for i := 0; i < features; i++ {
		if i > 0 {
			mean += ","
			scale += ","
		}
		mean += "0"
		scale += "1"
	}
	mean += "]"
	scale += "]"
	writeFile(t, paths.Scaler, `{"mean":`+mean+`,"scale":`+scale+`}`)

	coeffs := "["
	intercepts := "["
	for k := range classes {
		if k > 0 {
			coeffs += ","
			intercepts += ","
		}
		coeffs += mean // a zero row of the right width
		intercepts += "0"
	}
	coeffs += "]"
	intercepts += "]"
	writeFile(t, paths.Classifier, `{"coefficients":`+coeffs+`,"intercepts":`+intercepts+`}`)

	labels := `{"classes":[`
	for k, class := range classes {
		if k > 0 {
			labels += ","
		}
		labels += `"` + class + `"`
	}
	labels += `]}`
	writeFile(t, paths.Labels, labels)

	return paths
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadArtifacts(t *testing.T) {
	t.Parallel()

	classes := []string{"angry", "happy", "neutral", "sad"}
	paths := writeArtifacts(t, t.TempDir(), classes, 240)

	artifacts, err := LoadArtifacts(paths)
	if err != nil {
		t.Fatalf("LoadArtifacts returned error: %v", err)
	}
	if artifacts.Scaler.FeatureCount() != 240 {
		t.Fatalf("expected 240 scaler features, got %d", artifacts.Scaler.FeatureCount())
	}
	if artifacts.Classifier.ClassCount() != len(classes) {
		t.Fatalf("expected %d classes, got %d", len(classes), artifacts.Classifier.ClassCount())
	}
	if got := artifacts.Labels.Classes[3]; got != "sad" {
		t.Fatalf("label order not preserved: got %q at index 3", got)
	}
}

func TestLoadArtifactsMissingFile(t *testing.T) {
	t.Parallel()

	paths := writeArtifacts(t, t.TempDir(), []string{"a", "b"}, 4)
	os.Remove(paths.Labels)

	if _, err := LoadArtifacts(paths); err == nil {
		t.Fatal("expected error for missing label file")
	}
}

func TestLoadArtifactsUnparseableJSON(t *testing.T) {
	t.Parallel()

	paths := writeArtifacts(t, t.TempDir(), []string{"a", "b"}, 4)
	writeFile(t, paths.Classifier, "{not json")

	if _, err := LoadArtifacts(paths); err == nil {
		t.Fatal("expected error for unparseable classifier")
	}
}

func TestLoadArtifactsClassCountMismatch(t *testing.T) {
	t.Parallel()

	// Classifier fit on 8 classes, label set listing 6.
	dir := t.TempDir()
	paths := writeArtifacts(t, dir, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, 4)
	writeFile(t, paths.Labels, `{"classes":["a","b","c","d","e","f"]}`)

	if _, err := LoadArtifacts(paths); err == nil {
		t.Fatal("expected error for class count mismatch")
	}
}

func TestLoadArtifactsFeatureWidthMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := writeArtifacts(t, dir, []string{"a", "b"}, 4)
	writeFile(t, paths.Scaler, `{"mean":[0,0],"scale":[1,1]}`)

	if _, err := LoadArtifacts(paths); err == nil {
		t.Fatal("expected error for feature width mismatch")
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Parallel()

	paths := DefaultPaths("artifacts")
	if paths.Classifier != filepath.Join("artifacts", "classifier.json") {
		t.Fatalf("unexpected classifier path: %s", paths.Classifier)
	}
	if paths.Scaler != filepath.Join("artifacts", "scaler.json") {
		t.Fatalf("unexpected scaler path: %s", paths.Scaler)
	}
	if paths.Labels != filepath.Join("artifacts", "labels.json") {
		t.Fatalf("unexpected labels path: %s", paths.Labels)
	}
}
