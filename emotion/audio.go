package emotion

// Waveform Loading
//
// Converts raw audio handles (file paths or client payloads) into mono
// float64 waveforms at the fixed pipeline rate. WAV containers are parsed
// natively; other containers go through FFmpeg. Any decode failure surfaces
// as an error; no partial waveform is ever returned.

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voice-emotion/models"
	"voice-emotion/wav"
)

// audioExtensions lists the containers accepted by the input pre-filter.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".flac": true,
	".m4a":  true,
	".webm": true,
}

// IsSupportedAudioPath reports whether the file extension looks like audio.
// This is a cheap pre-filter in front of the decoder, not a validation.
func IsSupportedAudioPath(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// LoadWaveform decodes an audio file into mono samples at SampleRate.
func LoadWaveform(path string) ([]float64, error) {
	ext := strings.ToLower(filepath.Ext(path))

	wavPath := path
	if ext != ".wav" {
		converted, err := wav.ReformatWAV(path, 1, SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s container: %w", ext, err)
		}
		defer os.Remove(converted)
		wavPath = converted
	}

	info, err := wav.ReadWavInfo(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wav: %w", err)
	}
	samples, err := wav.DecodeToMono(info)
	if err != nil {
		return nil, fmt.Errorf("failed to decode samples: %w", err)
	}
	return wav.Resample(samples, info.SampleRate, SampleRate), nil
}

// DecodeRecordData converts a browser-captured recording payload into mono
// samples at SampleRate. The payload is base64: either a full WAV container
// or raw 16-bit PCM described by the accompanying format fields.
func DecodeRecordData(recData models.RecordData) ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(recData.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("empty audio payload")
	}

	if len(raw) >= 4 && string(raw[:4]) == "RIFF" {
		info, err := wav.ParseWavBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse wav payload: %w", err)
		}
		samples, err := wav.DecodeToMono(info)
		if err != nil {
			return nil, fmt.Errorf("failed to decode samples: %w", err)
		}
		return wav.Resample(samples, info.SampleRate, SampleRate), nil
	}

	// Raw PCM path: the client reports rate and channel count itself.
	if recData.SampleRate <= 0 {
		return nil, errors.New("missing sample rate for raw PCM payload")
	}
	samples, err := wav.WavBytesToSamples(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert pcm payload: %w", err)
	}
	if recData.Channels > 1 {
		samples = downmixInterleaved(samples, recData.Channels)
	}
	return wav.Resample(samples, recData.SampleRate, SampleRate), nil
}

// resampleForPipeline brings a foreign-rate waveform to the pipeline rate.
func resampleForPipeline(samples []float64, fromRate int) []float64 {
	return wav.Resample(samples, fromRate, SampleRate)
}

// downmixInterleaved averages interleaved channels into mono.
func downmixInterleaved(samples []float64, channels int) []float64 {
	frames := len(samples) / channels
	mono := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += samples[f*channels+c]
		}
		mono[f] = sum / float64(channels)
	}
	return mono
}
