package main

import (
	"flag"
	"log"
	"math"
	"strings"

	"voice-emotion/emotion"
	"voice-emotion/model"
)

func main() {
	modelDir := flag.String("model-dir", "artifacts",
		"Directory containing classifier.json, scaler.json and labels.json")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime)
	log.Println("=== Artifact Validation ===")
	log.Printf("Model dir: %s\n", *modelDir)
	log.Println()

	paths := model.DefaultPaths(*modelDir)
	artifacts, err := model.LoadArtifacts(paths)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	log.Println("All artifacts loaded and cross-validated")
	log.Println()
	log.Printf("Scaler:     %d features (%s)\n", artifacts.Scaler.FeatureCount(), paths.Scaler)
	log.Printf("Classifier: %d classes x %d features (%s)\n",
		artifacts.Classifier.ClassCount(), artifacts.Classifier.FeatureCount(), paths.Classifier)
	log.Printf("Labels:     %s (%s)\n", strings.Join(artifacts.Labels.Classes, ", "), paths.Labels)
	log.Println()

	if artifacts.Classifier.FeatureCount() != emotion.FeatureVectorLength {
		log.Fatalf("ERROR: classifier expects %d features, the feature extractor produces %d",
			artifacts.Classifier.FeatureCount(), emotion.FeatureVectorLength)
	}

	// Smoke test: classify a zero vector and check the distribution shape.
	zero := make([]float64, emotion.FeatureVectorLength)
	index, probabilities, err := artifacts.Classifier.Classify(zero)
	if err != nil {
		log.Fatalf("ERROR: classifier smoke test failed: %v", err)
	}

	sum := 0.0
	for _, p := range probabilities {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-6 {
		log.Fatalf("ERROR: probabilities sum to %.8f, expected 1.0", sum)
	}

	label, err := artifacts.Labels.Decode(index)
	if err != nil {
		log.Fatalf("ERROR: label decoding failed: %v", err)
	}

	log.Printf("Smoke test passed: zero vector -> %s (%.1f%%), probabilities sum to 1\n",
		label, probabilities[index]*100)
	log.Println()
	log.Println("Artifacts are ready to serve")
}
