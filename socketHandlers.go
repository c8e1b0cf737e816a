package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"

	"voice-emotion/db"
	"voice-emotion/emotion"
	"voice-emotion/models"
	"voice-emotion/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	pipeline *emotion.Pipeline
	store    db.Client
}

func newSocketController(pipeline *emotion.Pipeline, store db.Client) *socketController {
	return &socketController{pipeline: pipeline, store: store}
}

func (c *socketController) emitModelInfo(socket socketio.Conn) {
	socket.Emit("modelInfo", c.pipeline.Info())
}

func (c *socketController) handleRequestModelInfo(socket socketio.Conn) {
	c.emitModelInfo(socket)
}

func (c *socketController) handleNewRecording(socket socketio.Conn, recordData string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	logger.InfoContext(ctx, "handleNewRecording called",
		slog.String("socketID", socket.ID()),
		slog.Int("dataLength", len(recordData)),
	)

	if recordData == "" {
		logger.ErrorContext(ctx, "no data received in newRecording event")
		socket.Emit("predictionError", map[string]string{"message": "no audio data received"})
		return
	}

	var recData models.RecordData
	if err := json.Unmarshal([]byte(recordData), &recData); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse record payload", slog.Any("error", err))
		socket.Emit("predictionError", map[string]string{"message": "invalid audio payload"})
		return
	}

	logger.InfoContext(ctx, "received recording",
		slog.String("socketID", socket.ID()),
		slog.Int("sampleRate", recData.SampleRate),
		slog.Int("channels", recData.Channels),
		slog.Int("sampleSize", recData.SampleSize),
		slog.Float64("duration", recData.Duration),
	)

	result := c.pipeline.PredictRecordData(recData)

	log.Printf("[handleNewRecording] Prediction complete for socket %s: emotion=%s, valid=%v, latency=%.2fms\n",
		socket.ID(), result.Emotion, result.Valid, result.LatencyMs)
	logger.InfoContext(ctx, "prediction complete",
		slog.String("socketID", socket.ID()),
		slog.String("emotion", result.Emotion),
		slog.Float64("confidence", result.Confidence),
		slog.Bool("valid", result.Valid),
		slog.Float64("latency_ms", result.LatencyMs),
	)

	storePrediction(c.store, result, "socket:"+socket.ID())

	socket.Emit("prediction", result)
}
