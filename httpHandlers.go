package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voice-emotion/chat"
	"voice-emotion/db"
	"voice-emotion/emotion"
	"voice-emotion/model"
	"voice-emotion/models"
	"voice-emotion/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
)

type apiError struct {
	Message string `json:"message"`
}

type predictResponse struct {
	emotion.PredictionResult
	Insight string `json:"insight,omitempty"`
}

type healthResponse struct {
	Status   string   `json:"status"`
	Emotions []string `json:"emotions"`
	Features int      `json:"features"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

// storePrediction records a served prediction. Failures are logged only;
// history is best-effort and must never affect the response.
func storePrediction(store db.Client, result emotion.PredictionResult, source string) {
	if store == nil {
		return
	}

	record := &models.PredictionRecord{
		Timestamp:  time.Now(),
		Emotion:    result.Emotion,
		Confidence: result.Confidence,
		Valid:      result.Valid,
		Error:      result.Error,
		LatencyMs:  result.LatencyMs,
		Source:     source,
	}
	if len(result.Probabilities) > 0 {
		if probsJSON, err := json.Marshal(result.Probabilities); err == nil {
			record.Probabilities = probsJSON
		}
	}

	if err := store.StorePrediction(record); err != nil {
		log.Printf("failed to store prediction: %v\n", err)
	}
}

func newPredictUploadHandler(pipeline *emotion.Pipeline, store db.Client, insight *chat.GeminiClient) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if err := r.ParseMultipartForm(64 << 20); err != nil {
			logger.ErrorContext(ctx, "failed to parse multipart form", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid upload payload")
			return
		}

		src, fileHeader, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "no audio file provided")
			return
		}
		defer src.Close()

		tempDir := filepath.Join("tmp", "uploads")
		if err := utils.CreateFolder(tempDir); err != nil {
			logger.ErrorContext(ctx, "failed to create temporary upload dir", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "internal error while preparing upload")
			return
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if ext == "" {
			ext = ".wav"
		}
		tempFile, err := os.CreateTemp(tempDir, "upload-*"+ext)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create temp file", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "internal error while preparing upload")
			return
		}
		audioPath := tempFile.Name()
		defer os.Remove(audioPath)

		if _, err := io.Copy(tempFile, src); err != nil {
			tempFile.Close()
			logger.ErrorContext(ctx, "failed to persist upload", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "internal error while saving upload")
			return
		}
		tempFile.Close()

		result := pipeline.PredictFile(audioPath)

		log.Printf("[HTTP] Prediction for %s: emotion=%s, valid=%v, latency=%.2fms\n",
			fileHeader.Filename, result.Emotion, result.Valid, result.LatencyMs)
		logger.InfoContext(ctx, "served file prediction",
			slog.String("filename", fileHeader.Filename),
			slog.String("emotion", result.Emotion),
			slog.Bool("valid", result.Valid),
			slog.Float64("latency_ms", result.LatencyMs),
		)

		storePrediction(store, result, "upload:"+fileHeader.Filename)

		response := predictResponse{PredictionResult: result}
		if insight != nil && result.Valid && r.FormValue("explain") == "true" {
			text, err := insight.ExplainPrediction(result)
			if err != nil {
				logger.WarnContext(ctx, "insight generation failed", slog.Any("error", err))
			} else {
				response.Insight = text
			}
		}

		writeJSON(w, http.StatusOK, response)
	}
}

func newEmotionsHandler(pipeline *emotion.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		writeJSON(w, http.StatusOK, map[string][]string{"emotions": pipeline.KnownLabels()})
	}
}

func newPredictionsHandler(store db.Client) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if store == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "prediction history is disabled")
			return
		}

		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		records, err := store.GetRecentPredictions(limit)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load predictions", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load predictions")
			return
		}
		if records == nil {
			records = []models.PredictionRecord{}
		}

		writeJSON(w, http.StatusOK, records)
	}
}

func newHealthHandler(pipeline *emotion.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}

		info := pipeline.Info()
		writeJSON(w, http.StatusOK, healthResponse{
			Status:   "ok",
			Emotions: info.Labels,
			Features: info.FeatureLength,
		})
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	modelDir := utils.GetEnv("MODEL_DIR", "artifacts")
	artifacts, err := model.LoadArtifacts(model.DefaultPaths(modelDir))
	if err != nil {
		log.Fatalf("failed to load model artifacts from %s: %v", modelDir, err)
	}

	pipeline, err := emotion.NewPipeline(artifacts.Scaler, artifacts.Classifier, artifacts.Labels)
	if err != nil {
		log.Fatalf("failed to build prediction pipeline: %v", err)
	}
	log.Printf("Loaded model: %d emotions, %d features\n",
		len(artifacts.Labels.Classes), artifacts.Classifier.FeatureCount())

	var store db.Client
	if strings.EqualFold(utils.GetEnv("STORE_PREDICTIONS", "true"), "true") {
		store, err = db.NewDBClient()
		if err != nil {
			log.Printf("Failed to open prediction store, history disabled: %v\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	var insight *chat.GeminiClient
	if os.Getenv("GEMINI_API_KEY") != "" {
		insight, err = chat.NewGeminiClient()
		if err != nil {
			log.Printf("Failed to create Gemini client, insights disabled: %v\n", err)
			insight = nil
		}
	}

	controller := newSocketController(pipeline, store)

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		connURL := socket.URL()
		log.Printf("CONNECTED: %s, transport: %s, remote addr: %s\n", socket.ID(), connURL.String(), socket.RemoteAddr())
		controller.emitModelInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestModelInfo", func(socket socketio.Conn) {
		log.Printf("requestModelInfo received from %s\n", socket.ID())
		controller.handleRequestModelInfo(socket)
	})

	server.OnEvent("/", "newRecording", func(socket socketio.Conn, msg string) {
		log.Printf("newRecording event received from %s, data length: %d\n", socket.ID(), len(msg))
		// Run handler in goroutine to prevent blocking, with panic recovery
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handleNewRecording for socket %s: %v\n", socket.ID(), r)
					socket.Emit("predictionError", map[string]string{"message": "internal server error during processing"})
				}
			}()
			controller.handleNewRecording(socket, msg)
		}()
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/predict", newPredictUploadHandler(pipeline, store, insight))
	mux.HandleFunc("/api/emotions", newEmotionsHandler(pipeline))
	mux.HandleFunc("/api/predictions", newPredictionsHandler(store))
	mux.HandleFunc("/", newHealthHandler(pipeline))

	serveHTTP(server, serveHTTPS, port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
