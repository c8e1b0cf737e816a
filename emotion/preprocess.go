package emotion

// Waveform Preprocessing
//
// The preprocessing chain reproduces the conditioning applied when the model
// artifacts were fit offline, in this exact order:
//
// 1. Quality gate: RMS energy of the raw decoded waveform must clear a
//    minimum threshold. Near-silent clips produce noise-dominated features
//    that would otherwise yield a spuriously confident prediction, so they
//    are rejected before any further work.
// 2. Length normalization: right-pad with zeros or head-truncate to exactly
//    SampleRate * ClipDuration samples. Head-truncation (not center
//    cropping) is what the training features used; deviating here degrades
//    accuracy silently.
// 3. Amplitude normalization: divide by the peak absolute sample so the
//    waveform spans [-1, 1]. A zero peak skips the division.
//
// The gate intentionally measures energy BEFORE length normalization, on the
// original clip. Reordering would change which clips are rejected relative
// to the fitted model.

import "math"

const (
	// SampleRate is the fixed pipeline rate in Hz.
	SampleRate = 16000
	// ClipDuration is the fixed clip length in seconds.
	ClipDuration = 3.5
	// MinAudioEnergy is the RMS threshold below which a clip is rejected.
	MinAudioEnergy = 0.001
)

// TargetLength returns the normalized waveform length in samples.
func TargetLength() int {
	return int(math.Round(SampleRate * ClipDuration))
}

// RMSEnergy computes the root-mean-square energy of a waveform.
func RMSEnergy(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// NormalizeLength pads or truncates the waveform to exactly target samples.
// Shorter input is right-padded with zeros; longer input keeps its head.
func NormalizeLength(samples []float64, target int) []float64 {
	if target <= 0 {
		return nil
	}
	out := make([]float64, target)
	copy(out, samples)
	return out
}

// NormalizeAmplitude rescales the waveform in place so the peak absolute
// sample is 1. An all-zero waveform is left untouched.
func NormalizeAmplitude(samples []float64) {
	var peak float64
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	for i := range samples {
		samples[i] /= peak
	}
}
