package emotion

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voice-emotion/model"
	"voice-emotion/models"
	"voice-emotion/wav"
)

var testLabels = []string{"angry", "happy", "neutral", "sad"}

// newTestArtifacts builds a synthetic but structurally valid artifact set:
// an identity scaler and a logistic model whose intercepts fix the ranking.
func newTestArtifacts() (*model.StandardScaler, *model.LogisticClassifier, *model.LabelEncoder) {
	mean := make([]float64, FeatureVectorLength)
	scale := make([]float64, FeatureVectorLength)
	for i := range scale {
		scale[i] = 1
	}
	scaler := &model.StandardScaler{Mean: mean, Scale: scale}

	coefficients := make([][]float64, len(testLabels))
	for k := range coefficients {
		coefficients[k] = make([]float64, FeatureVectorLength)
	}
	classifier := &model.LogisticClassifier{
		Coefficients: coefficients,
		Intercepts:   []float64{0.1, 1.2, 0.4, 0.3},
	}

	return scaler, classifier, &model.LabelEncoder{Classes: testLabels}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	scaler, classifier, labels := newTestArtifacts()
	pipeline, err := NewPipeline(scaler, classifier, labels)
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}
	return pipeline
}

// countingClassifier wraps the real classifier to observe whether the
// pipeline invoked it.
type countingClassifier struct {
	inner Classifier
	calls int
}

func (c *countingClassifier) Classify(features []float64) (int, []float64, error) {
	c.calls++
	return c.inner.Classify(features)
}
func (c *countingClassifier) ClassCount() int   { return c.inner.ClassCount() }
func (c *countingClassifier) FeatureCount() int { return c.inner.FeatureCount() }

func TestNewPipelineRejectsMismatchedArtifacts(t *testing.T) {
	t.Parallel()

	scaler, classifier, labels := newTestArtifacts()

	if _, err := NewPipeline(nil, classifier, labels); err == nil {
		t.Fatal("expected error for missing scaler")
	}

	shortScaler := &model.StandardScaler{Mean: make([]float64, 10), Scale: make([]float64, 10)}
	if _, err := NewPipeline(shortScaler, classifier, labels); err == nil {
		t.Fatal("expected error for scaler feature width mismatch")
	}

	fewLabels := &model.LabelEncoder{Classes: []string{"angry", "happy"}}
	if _, err := NewPipeline(scaler, classifier, fewLabels); err == nil {
		t.Fatal("expected error for class count mismatch")
	}
}

func TestPredictSamplesValidResult(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(t)
	result := pipeline.PredictSamples(sineClip(440, 2.0), SampleRate)

	if !result.Valid {
		t.Fatalf("expected valid result, got error %q", result.Error)
	}
	if result.Error != "" {
		t.Fatalf("valid result must carry no error message, got %q", result.Error)
	}
	if len(result.Probabilities) != len(testLabels) {
		t.Fatalf("expected %d probabilities, got %d", len(testLabels), len(result.Probabilities))
	}

	var sum float64
	for _, label := range testLabels {
		p, ok := result.Probabilities[label]
		if !ok {
			t.Fatalf("probability map missing label %q", label)
		}
		if p < 0 || p > 1 {
			t.Fatalf("probability for %q out of range: %f", label, p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-4 {
		t.Fatalf("probabilities sum to %f, expected 1", sum)
	}

	if result.Confidence != result.Probabilities[result.Emotion] {
		t.Fatalf("confidence %f differs from predicted label probability %f",
			result.Confidence, result.Probabilities[result.Emotion])
	}
	if result.LatencyMs <= 0 {
		t.Fatalf("expected positive latency, got %f", result.LatencyMs)
	}
}

func TestPredictSamplesDeterministic(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(t)
	clip := sineClip(440, 2.0)

	first := pipeline.PredictSamples(clip, SampleRate)
	second := pipeline.PredictSamples(clip, SampleRate)

	if first.Emotion != second.Emotion || first.Confidence != second.Confidence {
		t.Fatalf("repeated prediction differs: %s/%f vs %s/%f",
			first.Emotion, first.Confidence, second.Emotion, second.Confidence)
	}
	for label, p := range first.Probabilities {
		if second.Probabilities[label] != p {
			t.Fatalf("probability for %q differs between runs", label)
		}
	}
}

func TestPredictSamplesRejectsSilence(t *testing.T) {
	t.Parallel()

	scaler, inner, labels := newTestArtifacts()
	classifier := &countingClassifier{inner: inner}
	pipeline, err := NewPipeline(scaler, classifier, labels)
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}

	// Amplitude well below the RMS gate.
	quiet := make([]float64, TargetLength())
	for i := range quiet {
		quiet[i] = 0.0001 * math.Sin(2*math.Pi*440*float64(i)/SampleRate)
	}

	result := pipeline.PredictSamples(quiet, SampleRate)
	if result.Valid {
		t.Fatal("expected near-silent clip to be rejected")
	}
	if !strings.Contains(result.Error, "too quiet") {
		t.Fatalf("expected quality gate message, got %q", result.Error)
	}
	if result.Emotion != "" || result.Confidence != 0 {
		t.Fatalf("rejected result must carry no prediction, got %s/%f", result.Emotion, result.Confidence)
	}
	if classifier.calls != 0 {
		t.Fatalf("classifier must not run for gated input, ran %d times", classifier.calls)
	}
}

func TestPredictSamplesRejectsEmptyAndBadRate(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(t)

	if result := pipeline.PredictSamples(nil, SampleRate); result.Valid {
		t.Fatal("expected empty waveform to be rejected")
	}
	if result := pipeline.PredictSamples(sineClip(440, 1.0), 0); result.Valid {
		t.Fatal("expected zero sample rate to be rejected")
	}
}

func TestPredictFileUnsupportedExtension(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(t)
	result := pipeline.PredictFile("notes.txt")
	if result.Valid {
		t.Fatal("expected non-audio extension to be rejected")
	}
	if !strings.Contains(result.Error, "invalid file format") {
		t.Fatalf("expected format message, got %q", result.Error)
	}
}

func TestPredictFileCorruptData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.wav")
	if err := os.WriteFile(path, []byte("definitely not a wav file"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	pipeline := newTestPipeline(t)
	result := pipeline.PredictFile(path)
	if result.Valid {
		t.Fatal("expected corrupt file to be rejected")
	}
	if !strings.Contains(result.Error, "unable to decode audio") {
		t.Fatalf("expected decode message, got %q", result.Error)
	}
}

func TestPredictFileEndToEnd(t *testing.T) {
	t.Parallel()

	// 2 seconds of 16-bit mono PCM at the pipeline rate.
	clip := sineClip(440, 2.0)
	data := make([]byte, len(clip)*2)
	for i, v := range clip {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(int16(v*32767)))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := wav.WriteWavFile(path, data, SampleRate, 1, 16); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	pipeline := newTestPipeline(t)
	result := pipeline.PredictFile(path)
	if !result.Valid {
		t.Fatalf("expected valid prediction, got error %q", result.Error)
	}
	if result.Emotion == "" {
		t.Fatal("expected a predicted emotion")
	}
}

func TestPredictRecordDataWavPayload(t *testing.T) {
	t.Parallel()

	clip := sineClip(440, 2.0)
	data := make([]byte, len(clip)*2)
	for i, v := range clip {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(int16(v*32767)))
	}

	path := filepath.Join(t.TempDir(), "payload.wav")
	if err := wav.WriteWavFile(path, data, SampleRate, 1, 16); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}

	pipeline := newTestPipeline(t)
	result := pipeline.PredictRecordData(models.RecordData{
		Audio:      base64.StdEncoding.EncodeToString(raw),
		SampleRate: SampleRate,
		Channels:   1,
	})
	if !result.Valid {
		t.Fatalf("expected valid prediction, got error %q", result.Error)
	}
}

func TestPredictRecordDataBadPayload(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(t)

	result := pipeline.PredictRecordData(models.RecordData{Audio: "%%% not base64 %%%"})
	if result.Valid {
		t.Fatal("expected invalid base64 payload to be rejected")
	}
	if !strings.Contains(result.Error, "unable to decode audio") {
		t.Fatalf("expected decode message, got %q", result.Error)
	}
}

func TestPipelineInfo(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(t)
	info := pipeline.Info()
	if info.LabelCount != len(testLabels) {
		t.Fatalf("expected %d labels, got %d", len(testLabels), info.LabelCount)
	}
	if info.FeatureLength != FeatureVectorLength {
		t.Fatalf("expected feature length %d, got %d", FeatureVectorLength, info.FeatureLength)
	}
	for i, label := range testLabels {
		if info.Labels[i] != label {
			t.Fatalf("label order changed at %d: got %q, want %q", i, info.Labels[i], label)
		}
	}
}
