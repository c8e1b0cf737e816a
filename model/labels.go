package model

import "fmt"

// LabelEncoder maps class indices to emotion labels. The positional index of
// each label matches the classifier's internal class indexing; this ordering
// comes from the training run and must not be sorted or deduplicated here.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Decode returns the label for a class index.
func (e *LabelEncoder) Decode(index int) (string, error) {
	if index < 0 || index >= len(e.Classes) {
		return "", fmt.Errorf("class index %d out of range [0, %d)", index, len(e.Classes))
	}
	return e.Classes[index], nil
}

// Labels returns the ordered label list. Callers must treat it as read-only.
func (e *LabelEncoder) Labels() []string {
	return e.Classes
}

func (e *LabelEncoder) validate() error {
	if len(e.Classes) == 0 {
		return fmt.Errorf("label encoder has no classes")
	}
	seen := make(map[string]bool, len(e.Classes))
	for i, label := range e.Classes {
		if label == "" {
			return fmt.Errorf("label encoder has empty label at index %d", i)
		}
		if seen[label] {
			return fmt.Errorf("label encoder has duplicate label %q", label)
		}
		seen[label] = true
	}
	return nil
}
