package models

import (
	"encoding/json"
	"time"
)

// RecordData carries a browser-captured recording: base64 audio plus the
// capture format reported by the client.
type RecordData struct {
	Audio      string  `json:"audio"`
	Duration   float64 `json:"duration"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sampleRate"`
	SampleSize int     `json:"sampleSize"`
}

// PredictionRecord is a stored prediction for the history endpoints.
type PredictionRecord struct {
	ID            int64           `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Emotion       string          `json:"emotion"`
	Confidence    float64         `json:"confidence"`
	Valid         bool            `json:"valid"`
	Error         string          `json:"error,omitempty"`
	LatencyMs     float64         `json:"latencyMs"`
	Probabilities json.RawMessage `json:"probabilities,omitempty"`
	Source        string          `json:"source,omitempty"`
}
