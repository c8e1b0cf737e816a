package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"voice-emotion/emotion"
	"voice-emotion/model"
)

// RunConfig holds batch prediction configuration
type RunConfig struct {
	ModelDir   string
	Input      string
	OutputCSV  string
	OutputJSON string
	Verbose    bool
}

// FilePrediction stores the result for a single input file
type FilePrediction struct {
	Filename      string             `json:"filename"`
	Emotion       string             `json:"emotion"`
	Confidence    float64            `json:"confidence"`
	Valid         bool               `json:"valid"`
	Error         string             `json:"error,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	LatencyMs     float64            `json:"latency_ms"`
}

// RunReport contains all batch results
type RunReport struct {
	Timestamp     time.Time        `json:"timestamp"`
	ModelDir      string           `json:"model_dir"`
	Input         string           `json:"input"`
	TotalSamples  int              `json:"total_samples"`
	ValidSamples  int              `json:"valid_samples"`
	Predictions   []FilePrediction `json:"predictions"`
	AvgConfidence float64          `json:"avg_confidence"`
	AvgLatency    float64          `json:"avg_latency_ms"`
}

func main() {
	config := parseFlags()

	log.SetFlags(log.Ldate | log.Ltime)
	log.Println("=== Emotion Prediction ===")
	log.Printf("Model dir: %s\n", config.ModelDir)
	log.Printf("Input: %s\n", config.Input)
	log.Println()

	log.Println("Loading model artifacts...")
	artifacts, err := model.LoadArtifacts(model.DefaultPaths(config.ModelDir))
	if err != nil {
		log.Fatalf("ERROR: Failed to load model artifacts: %v", err)
	}

	pipeline, err := emotion.NewPipeline(artifacts.Scaler, artifacts.Classifier, artifacts.Labels)
	if err != nil {
		log.Fatalf("ERROR: Failed to build pipeline: %v", err)
	}

	log.Printf("Loaded model with %d emotions: %s\n",
		len(artifacts.Labels.Classes), strings.Join(artifacts.Labels.Classes, ", "))
	log.Println()

	files, err := collectAudioFiles(config.Input)
	if err != nil {
		log.Fatalf("ERROR: Failed to read input: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("ERROR: No audio files found at %s", config.Input)
	}
	log.Printf("Found %d audio files\n", len(files))
	log.Println()

	report := runPredictions(pipeline, files, config)
	printRunReport(report, config)

	if config.OutputCSV != "" {
		if err := saveCSV(report, config.OutputCSV); err != nil {
			log.Printf("WARNING: Failed to save CSV: %v\n", err)
		} else {
			log.Printf("CSV results saved to: %s\n", config.OutputCSV)
		}
	}

	if config.OutputJSON != "" {
		if err := saveJSON(report, config.OutputJSON); err != nil {
			log.Printf("WARNING: Failed to save JSON: %v\n", err)
		} else {
			log.Printf("JSON results saved to: %s\n", config.OutputJSON)
		}
	}
}

func parseFlags() RunConfig {
	config := RunConfig{}

	flag.StringVar(&config.ModelDir, "model-dir", "artifacts",
		"Directory containing classifier.json, scaler.json and labels.json")
	flag.StringVar(&config.Input, "input", "",
		"Audio file or directory of audio files to classify")
	flag.StringVar(&config.OutputCSV, "output-csv", "",
		"Path to save predictions as CSV")
	flag.StringVar(&config.OutputJSON, "output-json", "",
		"Path to save predictions as JSON")
	flag.BoolVar(&config.Verbose, "verbose", false,
		"Print full probability distributions")

	flag.Parse()

	if config.Input == "" {
		flag.Usage()
		os.Exit(2)
	}

	return config
}

func collectAudioFiles(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(input, entry.Name())
		if emotion.IsSupportedAudioPath(path) {
			files = append(files, path)
		}
	}

	// Sort for consistent ordering
	sort.Strings(files)

	return files, nil
}

func runPredictions(pipeline *emotion.Pipeline, files []string, config RunConfig) RunReport {
	report := RunReport{
		Timestamp: time.Now(),
		ModelDir:  config.ModelDir,
		Input:     config.Input,
	}

	totalConfidence := 0.0
	totalLatency := 0.0

	for i, path := range files {
		if config.Verbose {
			log.Printf("[%d/%d] Processing %s...\n", i+1, len(files), filepath.Base(path))
		}

		result := pipeline.PredictFile(path)
		pred := FilePrediction{
			Filename:   filepath.Base(path),
			Emotion:    result.Emotion,
			Confidence: result.Confidence,
			Valid:      result.Valid,
			Error:      result.Error,
			LatencyMs:  result.LatencyMs,
		}
		if config.Verbose {
			pred.Probabilities = result.Probabilities
		}
		report.Predictions = append(report.Predictions, pred)

		if result.Valid {
			report.ValidSamples++
			totalConfidence += result.Confidence
		}
		totalLatency += result.LatencyMs
	}

	report.TotalSamples = len(files)
	if report.ValidSamples > 0 {
		report.AvgConfidence = totalConfidence / float64(report.ValidSamples)
	}
	if report.TotalSamples > 0 {
		report.AvgLatency = totalLatency / float64(report.TotalSamples)
	}

	return report
}

func printRunReport(report RunReport, config RunConfig) {
	log.Println()
	log.Println(strings.Repeat("=", 80))
	log.Println("PREDICTION RESULTS")
	log.Println(strings.Repeat("=", 80))
	log.Println()

	log.Printf("Total files: %d\n", report.TotalSamples)
	log.Printf("Valid predictions: %d\n", report.ValidSamples)
	log.Printf("Average confidence: %.2f%%\n", report.AvgConfidence*100)
	log.Printf("Average latency: %.2f ms/file\n", report.AvgLatency)
	log.Println()

	emotionCount := make(map[string]int)
	for _, pred := range report.Predictions {
		if pred.Valid {
			emotionCount[pred.Emotion]++
		}
	}

	if len(emotionCount) > 0 {
		log.Println("Predicted emotion distribution:")
		log.Println(strings.Repeat("-", 80))

		type kv struct {
			Key   string
			Value int
		}
		var sorted []kv
		for k, v := range emotionCount {
			sorted = append(sorted, kv{k, v})
		}
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Value > sorted[j].Value
		})

		for _, kv := range sorted {
			percentage := float64(kv.Value) / float64(report.ValidSamples) * 100
			log.Printf("  %-20s: %3d files (%.1f%%)\n", kv.Key, kv.Value, percentage)
		}
		log.Println()
	}

	log.Printf("%-30s %-12s %10s %10s\n", "Filename", "Emotion", "Confidence", "Latency")
	log.Println(strings.Repeat("-", 80))
	for _, pred := range report.Predictions {
		if pred.Valid {
			log.Printf("%-30s %-12s %9.1f%% %8.1fms\n",
				pred.Filename, pred.Emotion, pred.Confidence*100, pred.LatencyMs)
		} else {
			log.Printf("%-30s REJECTED: %s\n", pred.Filename, pred.Error)
		}
	}
	log.Println()
}

func saveCSV(report RunReport, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{
		"filename",
		"emotion",
		"confidence",
		"valid",
		"error",
		"latency_ms",
	}); err != nil {
		return err
	}

	for _, pred := range report.Predictions {
		if err := writer.Write([]string{
			pred.Filename,
			pred.Emotion,
			fmt.Sprintf("%.4f", pred.Confidence),
			fmt.Sprintf("%t", pred.Valid),
			pred.Error,
			fmt.Sprintf("%.2f", pred.LatencyMs),
		}); err != nil {
			return err
		}
	}

	return nil
}

func saveJSON(report RunReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
