package emotion

import (
	"math"
	"testing"
)

func TestTargetLength(t *testing.T) {
	t.Parallel()

	if got := TargetLength(); got != 56000 {
		t.Fatalf("expected target length 56000, got %d", got)
	}
}

func TestRMSEnergy(t *testing.T) {
	t.Parallel()

	if got := RMSEnergy(nil); got != 0 {
		t.Fatalf("expected zero energy for empty input, got %f", got)
	}

	constant := []float64{0.5, 0.5, 0.5, 0.5}
	if got := RMSEnergy(constant); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("expected RMS 0.5 for constant signal, got %f", got)
	}

	// A sine of amplitude A has RMS A/sqrt(2).
	sine := make([]float64, 16000)
	for i := range sine {
		sine[i] = 0.8 * math.Sin(2*math.Pi*440*float64(i)/16000)
	}
	want := 0.8 / math.Sqrt2
	if got := RMSEnergy(sine); math.Abs(got-want) > 1e-3 {
		t.Fatalf("expected RMS %.4f for sine, got %.4f", want, got)
	}
}

func TestNormalizeLengthPadsShortInput(t *testing.T) {
	t.Parallel()

	in := []float64{1, 2, 3}
	out := NormalizeLength(in, 8)
	if len(out) != 8 {
		t.Fatalf("expected length 8, got %d", len(out))
	}
	for i, v := range []float64{1, 2, 3, 0, 0, 0, 0, 0} {
		if out[i] != v {
			t.Fatalf("unexpected value at %d: got %f, want %f", i, out[i], v)
		}
	}
}

func TestNormalizeLengthTruncatesLongInput(t *testing.T) {
	t.Parallel()

	in := make([]float64, 100)
	for i := range in {
		in[i] = float64(i)
	}
	out := NormalizeLength(in, 10)
	if len(out) != 10 {
		t.Fatalf("expected length 10, got %d", len(out))
	}
	// Head-truncation keeps the first samples.
	for i := 0; i < 10; i++ {
		if out[i] != float64(i) {
			t.Fatalf("expected head sample %d at %d, got %f", i, i, out[i])
		}
	}
}

func TestNormalizeLengthExactFit(t *testing.T) {
	t.Parallel()

	in := []float64{4, 5, 6}
	out := NormalizeLength(in, 3)
	if len(out) != 3 {
		t.Fatalf("expected length 3, got %d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("expected unchanged sample at %d", i)
		}
	}
	// The output is a copy, not an alias.
	out[0] = 99
	if in[0] != 4 {
		t.Fatal("NormalizeLength must not alias its input")
	}
}

func TestNormalizeAmplitude(t *testing.T) {
	t.Parallel()

	samples := []float64{0.1, -0.4, 0.2}
	NormalizeAmplitude(samples)
	if math.Abs(samples[1]+1.0) > 1e-12 {
		t.Fatalf("expected peak sample scaled to -1, got %f", samples[1])
	}
	if math.Abs(samples[0]-0.25) > 1e-12 {
		t.Fatalf("expected 0.25, got %f", samples[0])
	}

	// A second pass is a no-op on already-normalized audio.
	before := append([]float64(nil), samples...)
	NormalizeAmplitude(samples)
	for i := range samples {
		if samples[i] != before[i] {
			t.Fatalf("second normalization changed sample %d", i)
		}
	}
}

func TestNormalizeAmplitudeSkipsSilence(t *testing.T) {
	t.Parallel()

	samples := []float64{0, 0, 0}
	NormalizeAmplitude(samples)
	for i, v := range samples {
		if v != 0 {
			t.Fatalf("expected zero at %d, got %f", i, v)
		}
	}
}
