package model

// Artifact Loading
//
// The scaler, classifier and label encoder are fit offline and persisted as
// three independent JSON files. Loading happens once at process startup and
// fails loudly on any structural problem: a missing file, unparseable JSON,
// or artifacts that disagree with each other on class count or feature
// width. The process must never serve predictions against a partially
// loaded or inconsistent model set, so every error from this file is fatal
// to initialization.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Paths locates the three artifact files.
type Paths struct {
	Classifier string
	Scaler     string
	Labels     string
}

// DefaultPaths returns the conventional artifact layout inside a model
// directory.
func DefaultPaths(dir string) Paths {
	return Paths{
		Classifier: filepath.Join(dir, "classifier.json"),
		Scaler:     filepath.Join(dir, "scaler.json"),
		Labels:     filepath.Join(dir, "labels.json"),
	}
}

// Artifacts bundles the loaded, validated model set.
type Artifacts struct {
	Scaler     *StandardScaler
	Classifier *LogisticClassifier
	Labels     *LabelEncoder
}

// LoadArtifacts reads and cross-validates the full artifact set.
func LoadArtifacts(paths Paths) (*Artifacts, error) {
	scaler := &StandardScaler{}
	if err := loadJSON(paths.Scaler, scaler); err != nil {
		return nil, fmt.Errorf("scaler artifact: %w", err)
	}
	if err := scaler.validate(); err != nil {
		return nil, fmt.Errorf("scaler artifact (%s): %w", paths.Scaler, err)
	}

	classifier := &LogisticClassifier{}
	if err := loadJSON(paths.Classifier, classifier); err != nil {
		return nil, fmt.Errorf("classifier artifact: %w", err)
	}
	if err := classifier.validate(); err != nil {
		return nil, fmt.Errorf("classifier artifact (%s): %w", paths.Classifier, err)
	}

	labels := &LabelEncoder{}
	if err := loadJSON(paths.Labels, labels); err != nil {
		return nil, fmt.Errorf("label artifact: %w", err)
	}
	if err := labels.validate(); err != nil {
		return nil, fmt.Errorf("label artifact (%s): %w", paths.Labels, err)
	}

	// Cross-artifact consistency. The files are independently produced, so
	// nothing but this check guards against mixing model generations.
	if scaler.FeatureCount() != classifier.FeatureCount() {
		return nil, fmt.Errorf("artifact mismatch: scaler has %d features, classifier has %d",
			scaler.FeatureCount(), classifier.FeatureCount())
	}
	if classifier.ClassCount() != len(labels.Classes) {
		return nil, fmt.Errorf("artifact mismatch: classifier has %d classes, label encoder has %d",
			classifier.ClassCount(), len(labels.Classes))
	}

	return &Artifacts{Scaler: scaler, Classifier: classifier, Labels: labels}, nil
}

func loadJSON(path string, target interface{}) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
