// ABOUTME: Trained label-encoder loading for the classifier's fixed label set.
// ABOUTME: Maps class indices from the inference output back to label names.

package labels

import (
	"encoding/json"
	"fmt"
	"os"
)

// Encoder holds the classifier's ordered label set. The order must match
// the class indices the trained model emits.
type Encoder struct {
	classes []string
}

// Load reads the label set from a JSON array file produced at training time.
func Load(path string) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("failed to parse label file: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("label file %s contains no classes", path)
	}

	return &Encoder{classes: classes}, nil
}

// InverseTransform maps a class index to its label name.
func (e *Encoder) InverseTransform(index int) (string, error) {
	if index < 0 || index >= len(e.classes) {
		return "", fmt.Errorf("class index %d out of range [0,%d)", index, len(e.classes))
	}
	return e.classes[index], nil
}

// NumClasses returns the size of the label set.
func (e *Encoder) NumClasses() int {
	return len(e.classes)
}
