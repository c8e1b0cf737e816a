package emotion

// Prediction Pipeline
//
// One execution per request, no cross-request state. The stages run strictly
// forward:
//
//   input pre-filter -> decode -> quality gate -> length normalization ->
//   amplitude normalization -> MFCC + deltas -> aggregation -> scale ->
//   classify -> result packaging
//
// The pipeline never lets a failure escape its boundary: decode failures and
// gate rejections become invalid results with user-actionable messages, and
// any unexpected numeric or shape fault is caught and converted into an
// invalid result rather than crashing the process. The scaler, classifier
// and label decoder are read-only after construction and shared by all
// concurrent requests without locking.

import (
	"fmt"
	"log/slog"
	"time"

	"voice-emotion/models"
	"voice-emotion/utils"
)

// Scaler applies a pre-fitted affine transform to a feature vector.
type Scaler interface {
	Transform(features []float64) ([]float64, error)
	FeatureCount() int
}

// Classifier maps a scaled feature vector to a class index and a full
// probability distribution. Deterministic, no side effects.
type Classifier interface {
	Classify(features []float64) (index int, probabilities []float64, err error)
	ClassCount() int
	FeatureCount() int
}

// LabelDecoder maps class indices to emotion labels.
type LabelDecoder interface {
	Decode(index int) (string, error)
	Labels() []string
}

// Pipeline orchestrates feature extraction and classification against an
// immutable artifact set.
type Pipeline struct {
	scaler     Scaler
	classifier Classifier
	decoder    LabelDecoder
	logger     *slog.Logger
}

// NewPipeline wires the three artifacts together, refusing construction if
// they disagree on feature width or class count. A pipeline that exists is
// always safe to serve with.
func NewPipeline(scaler Scaler, classifier Classifier, decoder LabelDecoder) (*Pipeline, error) {
	if scaler == nil || classifier == nil || decoder == nil {
		return nil, fmt.Errorf("all three artifacts are required")
	}
	if scaler.FeatureCount() != FeatureVectorLength {
		return nil, fmt.Errorf("scaler expects %d features, pipeline produces %d",
			scaler.FeatureCount(), FeatureVectorLength)
	}
	if classifier.FeatureCount() != FeatureVectorLength {
		return nil, fmt.Errorf("classifier expects %d features, pipeline produces %d",
			classifier.FeatureCount(), FeatureVectorLength)
	}
	if classifier.ClassCount() != len(decoder.Labels()) {
		return nil, fmt.Errorf("classifier has %d classes but label decoder has %d",
			classifier.ClassCount(), len(decoder.Labels()))
	}
	return &Pipeline{
		scaler:     scaler,
		classifier: classifier,
		decoder:    decoder,
		logger:     utils.GetLogger(),
	}, nil
}

// KnownLabels returns the ordered emotion label set.
func (p *Pipeline) KnownLabels() []string {
	labels := p.decoder.Labels()
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Info returns metadata about the loaded artifact set.
func (p *Pipeline) Info() ModelInfo {
	labels := p.KnownLabels()
	return ModelInfo{
		Labels:        labels,
		LabelCount:    len(labels),
		FeatureLength: FeatureVectorLength,
	}
}

// PredictFile classifies the emotion expressed in an audio file.
func (p *Pipeline) PredictFile(path string) PredictionResult {
	started := time.Now()

	if !IsSupportedAudioPath(path) {
		return p.invalid(started, "invalid file format: please supply an audio file (.wav, .mp3, .ogg, .flac, .m4a, .webm)")
	}

	samples, err := LoadWaveform(path)
	if err != nil {
		p.logger.Debug("decode failed", slog.String("path", path), slog.Any("error", err))
		return p.invalid(started, fmt.Sprintf("unable to decode audio: %v", err))
	}

	return p.predictSamples(started, samples)
}

// PredictRecordData classifies a browser-captured recording payload.
func (p *Pipeline) PredictRecordData(recData models.RecordData) PredictionResult {
	started := time.Now()

	samples, err := DecodeRecordData(recData)
	if err != nil {
		p.logger.Debug("payload decode failed", slog.Any("error", err))
		return p.invalid(started, fmt.Sprintf("unable to decode audio: %v", err))
	}

	return p.predictSamples(started, samples)
}

// PredictSamples classifies an already-decoded waveform, resampling it to
// the pipeline rate first.
func (p *Pipeline) PredictSamples(samples []float64, sampleRate int) PredictionResult {
	started := time.Now()
	if sampleRate <= 0 {
		return p.invalid(started, "invalid sample rate")
	}
	if sampleRate != SampleRate {
		samples = resampleForPipeline(samples, sampleRate)
	}
	return p.predictSamples(started, samples)
}

// predictSamples runs the gate, preprocessing, extraction and classification
// stages. The recover guard converts any unexpected fault into a structured
// failure result.
func (p *Pipeline) predictSamples(started time.Time, samples []float64) (result PredictionResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("prediction pipeline panic", slog.Any("panic", r))
			result = p.invalid(started, fmt.Sprintf("processing error: %v", r))
		}
	}()

	if len(samples) == 0 {
		return p.invalid(started, "unable to decode audio: empty waveform")
	}

	// Gate on the original clip, before length normalization. The energy of
	// a padded clip differs from the original's, and the fitted model saw
	// gating applied to originals.
	if RMSEnergy(samples) < MinAudioEnergy {
		return p.invalid(started, "invalid audio: file is too quiet, corrupted, or not valid speech")
	}

	samples = NormalizeLength(samples, TargetLength())
	NormalizeAmplitude(samples)

	features, err := ExtractFeatureVector(samples)
	if err != nil {
		p.logger.Error("feature extraction failed", slog.Any("error", err))
		return p.invalid(started, fmt.Sprintf("processing error: %v", err))
	}

	scaled, err := p.scaler.Transform(features)
	if err != nil {
		p.logger.Error("feature scaling failed", slog.Any("error", err))
		return p.invalid(started, fmt.Sprintf("processing error: %v", err))
	}

	index, probabilities, err := p.classifier.Classify(scaled)
	if err != nil {
		p.logger.Error("classification failed", slog.Any("error", err))
		return p.invalid(started, fmt.Sprintf("processing error: %v", err))
	}

	emotion, err := p.decoder.Decode(index)
	if err != nil {
		p.logger.Error("label decoding failed", slog.Any("error", err))
		return p.invalid(started, fmt.Sprintf("processing error: %v", err))
	}

	labels := p.decoder.Labels()
	if len(probabilities) != len(labels) {
		return p.invalid(started, fmt.Sprintf("processing error: %d probabilities for %d labels",
			len(probabilities), len(labels)))
	}

	allProbs := make(map[string]float64, len(labels))
	for i, label := range labels {
		allProbs[label] = probabilities[i]
	}

	return PredictionResult{
		Emotion:       emotion,
		Confidence:    probabilities[index],
		Probabilities: allProbs,
		Valid:         true,
		LatencyMs:     latencyMs(started),
	}
}

func (p *Pipeline) invalid(started time.Time, message string) PredictionResult {
	return PredictionResult{
		Probabilities: map[string]float64{},
		Valid:         false,
		Error:         message,
		LatencyMs:     latencyMs(started),
	}
}

func latencyMs(started time.Time) float64 {
	return float64(time.Since(started).Microseconds()) / 1000.0
}
