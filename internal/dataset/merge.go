package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/peloton/internal/model"
)

// StageFileName returns the file name of a single scraped stage.
func StageFileName(n int) string {
	return fmt.Sprintf("stage-%d.json", n)
}

// ReadStages reads stage-1.json through stage-count.json from dir.
func ReadStages(dir string, count int) ([]model.Stage, error) {
	if count <= 0 {
		return nil, fmt.Errorf("stage count must be > 0")
	}
	stages := make([]model.Stage, 0, count)
	for i := 1; i <= count; i++ {
		path := filepath.Join(dir, StageFileName(i))
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var stage model.Stage
		if err := json.Unmarshal(data, &stage); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// WriteFile writes stages as an indented JSON array, replacing path atomically.
func WriteFile(path string, stages []model.Stage) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dataset dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "dataset-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stages); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close dataset: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}
