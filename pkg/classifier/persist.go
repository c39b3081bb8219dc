package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveModel serializes the model as JSON at path, creating parent
// directories as needed.
func SaveModel(path string, m *Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	return nil
}

// LoadModel reads a persisted model. A missing file surfaces as
// os.ErrNotExist so callers can treat absence as the normal first-run
// case.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding model file %s: %w", path, err)
	}
	if len(m.Trees) == 0 {
		return nil, fmt.Errorf("model file %s holds no trees", path)
	}
	return &m, nil
}
