package emotion

// Fast Fourier Transform (FFT)
//
// Radix-2 Cooley-Tukey transform used by the spectral feature extractor to
// move windowed audio frames into the frequency domain. The analysis window
// length is a power of two, so no zero padding or mixed-radix handling is
// needed here.

import (
	"math"
	"math/bits"
)

// fft computes the discrete Fourier transform of a real-valued input whose
// length must be a power of two.
func fft(input []float64) []complex128 {
	n := len(input)
	if n == 0 || n&(n-1) != 0 {
		return nil
	}

	// Bit-reversal permutation into the working buffer.
	shift := 64 - uint(bits.TrailingZeros(uint(n)))
	buf := make([]complex128, n)
	for i, v := range input {
		buf[bits.Reverse64(uint64(i))>>shift] = complex(v, 0)
	}

	// Iterative butterfly stages.
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := -2 * math.Pi / float64(size)
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				angle := step * float64(k)
				w := complex(math.Cos(angle), math.Sin(angle))
				a := buf[start+k]
				b := buf[start+k+half] * w
				buf[start+k] = a + b
				buf[start+k+half] = a - b
			}
		}
	}

	return buf
}
