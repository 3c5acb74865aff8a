// Package dataset loads published stage results from disk or over HTTP.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/peloton/internal/model"
)

const fetchTimeout = 30 * time.Second

// ErrEmptyDataset is returned for a dataset without stages.
var ErrEmptyDataset = errors.New("dataset has no stages")

var rowValidator = validator.New()

// Load reads a JSON array of stages from a file path or an http(s) URL.
func Load(ctx context.Context, source string, logger *slog.Logger) ([]model.Stage, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("dataset source is empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var stages []model.Stage
	var err error
	if isURL(source) {
		logger.Debug("fetching dataset", "url", source)
		stages, err = fetch(ctx, source)
	} else {
		logger.Debug("reading dataset", "path", source)
		stages, err = readFile(source)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(stages); err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", "source", source, "stages", len(stages))
	return stages, nil
}

// Decode parses a JSON array of stages.
func Decode(r io.Reader) ([]model.Stage, error) {
	var stages []model.Stage
	if err := json.NewDecoder(r).Decode(&stages); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return stages, nil
}

// Validate checks that every stage carries the fields aggregation depends on.
func Validate(stages []model.Stage) error {
	if len(stages) == 0 {
		return ErrEmptyDataset
	}
	for i, stage := range stages {
		if err := rowValidator.Struct(stage); err != nil {
			return fmt.Errorf("stage %d (%s) is invalid: %w", i+1, stage.Index, err)
		}
	}
	return nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func readFile(path string) ([]model.Stage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only dataset.
			_ = cerr
		}
	}()
	return Decode(file)
}

func fetch(ctx context.Context, url string) ([]model.Stage, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected dataset status: %s", resp.Status)
	}
	return Decode(resp.Body)
}
