package wav

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CheckFFmpegAvailable reports whether the ffmpeg binary can be invoked.
// Native decoding covers WAV; anything else needs FFmpeg.
func CheckFFmpegAvailable() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// ReformatWAV converts an audio file of any FFmpeg-supported container into a
// 16-bit PCM WAV with the requested channel count and sample rate, written
// next to the input with a "_fmt.wav" suffix. Returns the output path.
func ReformatWAV(path string, channels, sampleRate int) (string, error) {
	if channels <= 0 {
		channels = 1
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	output := strings.TrimSuffix(path, fileExt(path)) + "_fmt.wav"
	cmd := exec.Command("ffmpeg", "-y",
		"-i", path,
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-acodec", "pcm_s16le",
		output,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg conversion failed: %w (%s)", err, lastLine(out))
	}
	return output, nil
}

func fileExt(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 && idx > strings.LastIndexAny(path, "/\\") {
		return path[idx:]
	}
	return ""
}

// lastLine extracts the final line of ffmpeg output, which carries the
// actual error message.
func lastLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		lines := strings.Split(s, "\n")
		return strings.TrimSpace(lines[len(lines)-1])
	}
	return s
}
