package emotion

// Cepstral Feature Extraction (MFCC)
//
// Computes a 40-coefficient mel-frequency cepstral representation of a
// normalized waveform, plus its first and second time-derivatives. Every
// framing and filterbank constant below is a compatibility parameter: the
// classifier and scaler artifacts were fit against features produced with
// this exact configuration, and none of these values can change without
// refitting them.
//
// Processing steps per clip:
// 1. Reflect-pad the waveform by half a window on each side so frames are
//    centered on their timestamps
// 2. Slice into 2048-sample frames every 512 samples and apply a periodic
//    Hann window
// 3. FFT each frame and keep the one-sided power spectrum (1025 bins)
// 4. Project power spectra through a 128-band mel filterbank (Slaney scale,
//    area-normalized triangles, 0-8000 Hz)
// 5. Convert to log power with a 1e-10 floor and an 80 dB dynamic range
//    clamp relative to the clip maximum
// 6. Decorrelate with an orthonormal DCT-II and keep the first 40
//    coefficients
//
// Derivatives use a width-9 Savitzky-Golay convention: a least-squares
// polynomial slope for delta and curvature for delta-delta, with edge frames
// taking the fitted value of the first/last full window.

import "math"

const (
	// NumCoefficients is the cepstral coefficient count per frame.
	NumCoefficients = 40

	mfccFFTSize    = 2048
	mfccHopLength  = 512
	melFilterCount = 128
	melMaxFreq     = 8000.0
	logPowerFloor  = 1e-10
	dynamicRangeDB = 80.0
	deltaWidth     = 9
)

// Shared analysis tables. Read-only after construction, safe for concurrent
// requests.
var (
	hannWindow    = buildHannWindow(mfccFFTSize)
	melFilterbank = buildMelFilterbank(melFilterCount, mfccFFTSize, SampleRate, melMaxFreq)
	dctTable      = buildDCTTable(NumCoefficients, melFilterCount)
)

// ComputeMFCC returns the cepstral matrix of shape
// [NumCoefficients][frameCount].
func ComputeMFCC(samples []float64) [][]float64 {
	power := powerSpectrogram(samples)
	frameCount := len(power)

	// Mel projection and log-power conversion share one pass. The dynamic
	// range clamp needs the clip-wide maximum, so log values are floored
	// first and clamped after.
	logMel := make([][]float64, melFilterCount)
	for m := range logMel {
		logMel[m] = make([]float64, frameCount)
	}
	maxDB := math.Inf(-1)
	for t := 0; t < frameCount; t++ {
		for m := 0; m < melFilterCount; m++ {
			filter := melFilterbank[m]
			var energy float64
			for _, fw := range filter {
				energy += fw.weight * power[t][fw.bin]
			}
			if energy < logPowerFloor {
				energy = logPowerFloor
			}
			db := 10 * math.Log10(energy)
			logMel[m][t] = db
			if db > maxDB {
				maxDB = db
			}
		}
	}
	floor := maxDB - dynamicRangeDB
	for m := range logMel {
		for t := range logMel[m] {
			if logMel[m][t] < floor {
				logMel[m][t] = floor
			}
		}
	}

	mfcc := make([][]float64, NumCoefficients)
	for c := range mfcc {
		mfcc[c] = make([]float64, frameCount)
		row := dctTable[c]
		for t := 0; t < frameCount; t++ {
			var sum float64
			for m := 0; m < melFilterCount; m++ {
				sum += row[m] * logMel[m][t]
			}
			mfcc[c][t] = sum
		}
	}
	return mfcc
}

// ComputeDelta returns the Savitzky-Golay derivative of the given order
// (1 or 2) along the time axis. Shape is preserved.
func ComputeDelta(matrix [][]float64, order int) [][]float64 {
	if len(matrix) == 0 {
		return nil
	}
	frameCount := len(matrix[0])

	half := (deltaWidth - 1) / 2
	if frameCount < deltaWidth {
		half = (frameCount - 1) / 2
		if half < 1 {
			half = 1
		}
	}
	weights := savgolDerivWeights(half, order)

	out := make([][]float64, len(matrix))
	for c, row := range matrix {
		dst := make([]float64, frameCount)
		lo, hi := half, frameCount-1-half
		if hi < lo {
			out[c] = dst
			continue
		}
		for t := lo; t <= hi; t++ {
			var sum float64
			for n := -half; n <= half; n++ {
				sum += weights[n+half] * row[t+n]
			}
			dst[t] = sum
		}
		// Edge frames take the fitted polynomial's derivative from the
		// first/last complete window, which is constant across the window.
		for t := 0; t < lo; t++ {
			dst[t] = dst[lo]
		}
		for t := hi + 1; t < frameCount; t++ {
			dst[t] = dst[hi]
		}
		out[c] = dst
	}
	return out
}

// savgolDerivWeights builds least-squares derivative weights for a window of
// 2*half+1 points. order 1 fits a line, order 2 fits a parabola and returns
// its second derivative.
func savgolDerivWeights(half, order int) []float64 {
	size := 2*half + 1
	weights := make([]float64, size)
	switch order {
	case 1:
		var denom float64
		for n := 1; n <= half; n++ {
			denom += 2 * float64(n) * float64(n)
		}
		for n := -half; n <= half; n++ {
			weights[n+half] = float64(n) / denom
		}
	case 2:
		var s2, s4 float64
		for n := -half; n <= half; n++ {
			nf := float64(n)
			s2 += nf * nf
			s4 += nf * nf * nf * nf
		}
		mean := s2 / float64(size)
		norm := s4 - s2*mean
		for n := -half; n <= half; n++ {
			nf := float64(n)
			weights[n+half] = 2 * (nf*nf - mean) / norm
		}
	}
	return weights
}

// powerSpectrogram slices the waveform into centered, windowed frames and
// returns the one-sided power spectrum per frame.
func powerSpectrogram(samples []float64) [][]float64 {
	pad := mfccFFTSize / 2
	padded := reflectPad(samples, pad)
	frameCount := 1 + (len(padded)-mfccFFTSize)/mfccHopLength
	binCount := mfccFFTSize/2 + 1

	windowed := make([]float64, mfccFFTSize)
	power := make([][]float64, frameCount)
	for t := 0; t < frameCount; t++ {
		start := t * mfccHopLength
		for i := 0; i < mfccFFTSize; i++ {
			windowed[i] = padded[start+i] * hannWindow[i]
		}
		spectrum := fft(windowed)
		bins := make([]float64, binCount)
		for k := 0; k < binCount; k++ {
			re := real(spectrum[k])
			im := imag(spectrum[k])
			bins[k] = re*re + im*im
		}
		power[t] = bins
	}
	return power
}

// reflectPad mirrors the waveform around its endpoints without repeating the
// edge samples.
func reflectPad(samples []float64, pad int) []float64 {
	n := len(samples)
	out := make([]float64, n+2*pad)
	copy(out[pad:], samples)
	for i := 1; i <= pad; i++ {
		out[pad-i] = samples[reflectIndex(i, n)]
		out[pad+n-1+i] = samples[reflectIndex(n-1-i, n)]
	}
	return out
}

// reflectIndex folds an out-of-range index back into [0, n) by mirroring at
// the boundaries.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i = ((i % period) + period) % period
	if i >= n {
		i = period - i
	}
	return i
}

func buildHannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		// periodic Hann, matching FFT-oriented window generation
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
	return window
}

// melWeight is one nonzero filterbank entry: a spectrum bin index and its
// triangle weight.
type melWeight struct {
	bin    int
	weight float64
}

// buildMelFilterbank constructs area-normalized triangular filters on the
// Slaney mel scale, stored sparsely per filter.
func buildMelFilterbank(filterCount, fftSize, sampleRate int, maxFreq float64) [][]melWeight {
	binCount := fftSize/2 + 1
	fftFreqs := make([]float64, binCount)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}

	melMin := hzToMel(0)
	melMax := hzToMel(maxFreq)
	edges := make([]float64, filterCount+2)
	for i := range edges {
		mel := melMin + (melMax-melMin)*float64(i)/float64(filterCount+1)
		edges[i] = melToHz(mel)
	}

	bank := make([][]melWeight, filterCount)
	for m := 0; m < filterCount; m++ {
		lower, center, upper := edges[m], edges[m+1], edges[m+2]
		enorm := 2.0 / (upper - lower)
		var filter []melWeight
		for k, freq := range fftFreqs {
			up := (freq - lower) / (center - lower)
			down := (upper - freq) / (upper - center)
			w := math.Min(up, down)
			if w > 0 {
				filter = append(filter, melWeight{bin: k, weight: w * enorm})
			}
		}
		bank[m] = filter
	}
	return bank
}

// hzToMel converts frequency to the Slaney mel scale: linear below 1 kHz,
// logarithmic above.
func hzToMel(freq float64) float64 {
	const (
		freqStep  = 200.0 / 3.0
		breakFreq = 1000.0
	)
	breakMel := breakFreq / freqStep
	logStep := math.Log(6.4) / 27.0
	if freq < breakFreq {
		return freq / freqStep
	}
	return breakMel + math.Log(freq/breakFreq)/logStep
}

func melToHz(mel float64) float64 {
	const (
		freqStep  = 200.0 / 3.0
		breakFreq = 1000.0
	)
	breakMel := breakFreq / freqStep
	logStep := math.Log(6.4) / 27.0
	if mel < breakMel {
		return mel * freqStep
	}
	return breakFreq * math.Exp(logStep*(mel-breakMel))
}

// buildDCTTable precomputes the orthonormal DCT-II basis used to decorrelate
// the log-mel spectrum.
func buildDCTTable(coeffCount, inputCount int) [][]float64 {
	table := make([][]float64, coeffCount)
	scale0 := math.Sqrt(1.0 / float64(inputCount))
	scale := math.Sqrt(2.0 / float64(inputCount))
	for c := range table {
		row := make([]float64, inputCount)
		for m := range row {
			row[m] = math.Cos(math.Pi * float64(c) * (2*float64(m) + 1) / (2 * float64(inputCount)))
			if c == 0 {
				row[m] *= scale0
			} else {
				row[m] *= scale
			}
		}
		table[c] = row
	}
	return table
}
