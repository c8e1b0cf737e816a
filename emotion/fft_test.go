package emotion

import (
	"math"
	"math/cmplx"
	"testing"
)

// dft is a direct O(n^2) reference transform.
func dft(input []float64) []complex128 {
	n := len(input)
	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for i, v := range input {
			angle := -2 * math.Pi * float64(k) * float64(i) / float64(n)
			sum += complex(v, 0) * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}

func TestFFTMatchesDirectTransform(t *testing.T) {
	t.Parallel()

	input := make([]float64, 64)
	for i := range input {
		input[i] = math.Sin(0.3*float64(i)) + 0.5*math.Cos(1.7*float64(i))
	}

	got := fft(input)
	want := dft(input)
	for k := range want {
		if cmplx.Abs(got[k]-want[k]) > 1e-9 {
			t.Fatalf("bin %d differs: got %v, want %v", k, got[k], want[k])
		}
	}
}

func TestFFTPureTonePeak(t *testing.T) {
	t.Parallel()

	const n = 256
	const bin = 16
	input := make([]float64, n)
	for i := range input {
		input[i] = math.Cos(2 * math.Pi * bin * float64(i) / n)
	}

	spectrum := fft(input)
	// A pure cosine concentrates all energy in its bin (and the mirror).
	if mag := cmplx.Abs(spectrum[bin]); math.Abs(mag-n/2) > 1e-6 {
		t.Fatalf("expected magnitude %d at bin %d, got %f", n/2, bin, mag)
	}
	for k := 1; k < n/2; k++ {
		if k == bin {
			continue
		}
		if mag := cmplx.Abs(spectrum[k]); mag > 1e-6 {
			t.Fatalf("unexpected energy %f at bin %d", mag, k)
		}
	}
}

func TestFFTRejectsNonPowerOfTwo(t *testing.T) {
	t.Parallel()

	if got := fft(make([]float64, 100)); got != nil {
		t.Fatal("expected nil for non-power-of-two input")
	}
	if got := fft(nil); got != nil {
		t.Fatal("expected nil for empty input")
	}
}
