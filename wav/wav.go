package wav

// WAV Decoding and Encoding
//
// This package handles RIFF/WAV container parsing and writing without external
// decoders. It supports:
//
// 1. PCM integer formats: 8-bit unsigned, 16/24/32-bit signed little-endian
// 2. IEEE float format: 32-bit float
// 3. Multi-channel audio: downmixed to mono by averaging channels
// 4. Arbitrary sample rates: resampled to the pipeline rate by linear
//    interpolation
//
// Non-WAV containers (mp3, ogg, flac, webm, m4a) are converted through FFmpeg
// before parsing; see convert.go.

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

const (
	formatPCM       = 1
	formatIEEEFloat = 3
)

// WavInfo describes a parsed WAV file: format fields from the fmt chunk plus
// the raw interleaved sample data.
type WavInfo struct {
	SampleRate  int
	Channels    int
	BitDepth    int
	AudioFormat int
	Duration    float64
	Data        []byte
}

// ReadWavInfo parses the RIFF structure of a WAV file and returns its format
// description together with the raw data chunk.
func ReadWavInfo(path string) (*WavInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wav file: %w", err)
	}
	return ParseWavBytes(raw)
}

// ParseWavBytes parses an in-memory WAV byte buffer.
func ParseWavBytes(raw []byte) (*WavInfo, error) {
	if len(raw) < 12 {
		return nil, errors.New("file too short to be a wav file")
	}
	if string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errors.New("missing RIFF/WAVE header")
	}

	info := &WavInfo{}
	sawFmt := false

	// Walk the chunk list; chunks other than fmt/data are skipped.
	offset := 12
	for offset+8 <= len(raw) {
		chunkID := string(raw[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if chunkSize < 0 || body > len(raw) {
			return nil, errors.New("corrupt chunk header")
		}
		end := body + chunkSize
		if end > len(raw) {
			// Tolerate a truncated final data chunk; some encoders write a
			// size covering padding that was never flushed.
			end = len(raw)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, errors.New("fmt chunk too short")
			}
			info.AudioFormat = int(binary.LittleEndian.Uint16(raw[body : body+2]))
			info.Channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			info.BitDepth = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
			sawFmt = true
		case "data":
			info.Data = raw[body:end]
		}

		offset = end
		if chunkSize%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}

	if !sawFmt {
		return nil, errors.New("missing fmt chunk")
	}
	if len(info.Data) == 0 {
		return nil, errors.New("missing or empty data chunk")
	}
	if info.Channels <= 0 || info.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid wav format: channels=%d sampleRate=%d", info.Channels, info.SampleRate)
	}
	switch info.AudioFormat {
	case formatPCM:
		if info.BitDepth != 8 && info.BitDepth != 16 && info.BitDepth != 24 && info.BitDepth != 32 {
			return nil, fmt.Errorf("unsupported PCM bit depth: %d", info.BitDepth)
		}
	case formatIEEEFloat:
		if info.BitDepth != 32 {
			return nil, fmt.Errorf("unsupported float bit depth: %d", info.BitDepth)
		}
	default:
		return nil, fmt.Errorf("unsupported wav audio format: %d", info.AudioFormat)
	}

	bytesPerFrame := info.Channels * info.BitDepth / 8
	if bytesPerFrame > 0 {
		frames := len(info.Data) / bytesPerFrame
		info.Duration = float64(frames) / float64(info.SampleRate)
	}

	return info, nil
}

// DecodeToMono converts the raw data chunk into float64 samples in [-1, 1],
// averaging channels when the source is not mono.
func DecodeToMono(info *WavInfo) ([]float64, error) {
	if info == nil || len(info.Data) == 0 {
		return nil, errors.New("no wav data to decode")
	}

	bytesPerSample := info.BitDepth / 8
	bytesPerFrame := bytesPerSample * info.Channels
	frames := len(info.Data) / bytesPerFrame
	if frames == 0 {
		return nil, errors.New("wav data contains no complete frames")
	}

	samples := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		base := f * bytesPerFrame
		for c := 0; c < info.Channels; c++ {
			v, err := decodeSample(info, info.Data[base+c*bytesPerSample:])
			if err != nil {
				return nil, err
			}
			sum += v
		}
		samples[f] = sum / float64(info.Channels)
	}

	return samples, nil
}

func decodeSample(info *WavInfo, b []byte) (float64, error) {
	if info.AudioFormat == formatIEEEFloat {
		bits := binary.LittleEndian.Uint32(b[:4])
		return float64(math.Float32frombits(bits)), nil
	}
	switch info.BitDepth {
	case 8:
		// 8-bit WAV is unsigned with 128 as zero
		return (float64(b[0]) - 128.0) / 128.0, nil
	case 16:
		v := int16(binary.LittleEndian.Uint16(b[:2]))
		return float64(v) / 32768.0, nil
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xffffff // sign extend
		}
		return float64(v) / 8388608.0, nil
	case 32:
		v := int32(binary.LittleEndian.Uint32(b[:4]))
		return float64(v) / 2147483648.0, nil
	}
	return 0, fmt.Errorf("unsupported bit depth: %d", info.BitDepth)
}

// WavBytesToSamples interprets raw little-endian 16-bit mono PCM bytes as
// float64 samples. Used for browser-captured payloads that arrive without a
// container.
func WavBytesToSamples(data []byte) ([]float64, error) {
	if len(data) < 2 {
		return nil, errors.New("pcm byte buffer too short")
	}
	samples := make([]float64, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[2*i : 2*i+2]))
		samples[i] = float64(v) / 32768.0
	}
	return samples, nil
}

// Resample converts samples from one rate to another using linear
// interpolation. A matching rate returns a copy.
func Resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(math.Round(float64(len(samples)) * float64(toRate) / float64(fromRate)))
	if outLen == 0 {
		outLen = 1
	}

	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// WriteWavFile writes raw interleaved PCM bytes with a standard 44-byte
// header. sampleSize is in bits per sample.
func WriteWavFile(path string, data []byte, sampleRate, channels, sampleSize int) error {
	if sampleRate <= 0 || channels <= 0 || sampleSize <= 0 {
		return fmt.Errorf("invalid wav parameters: rate=%d channels=%d size=%d", sampleRate, channels, sampleSize)
	}

	byteRate := sampleRate * channels * sampleSize / 8
	blockAlign := channels * sampleSize / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(data)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(sampleSize))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(data)))

	out := append(header, data...)
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write wav file: %w", err)
	}
	return nil
}
