package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// RunStatus is a model's status within a single run-state file.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ModelRunRecord is one model's recorded outcome within a run.
type ModelRunRecord struct {
	Status       RunStatus `json:"status"`
	DurationMs   int64     `json:"duration_ms,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// RunStateFile is the resumable record of an in-progress or completed
// invocation: the config hash it was started under, and each model's
// outcome so far. It is the source of truth for `resume`/`retry_failed`.
type RunStateFile struct {
	ConfigHash string                    `json:"config_hash"`
	Models     map[string]ModelRunRecord `json:"models"`
}

// NewRunStateFile returns an empty run-state file for the given config
// hash, with every model recorded pending.
func NewRunStateFile(configHash string, modelNames []string) *RunStateFile {
	models := make(map[string]ModelRunRecord, len(modelNames))
	for _, name := range modelNames {
		models[name] = ModelRunRecord{Status: RunPending}
	}

	return &RunStateFile{ConfigHash: configHash, Models: models}
}

// ErrRunStateNotFound is returned by Load when no run-state file exists
// at the given path.
var ErrRunStateNotFound = errors.New("run-state file not found")

// Load reads a run-state file from path.
func Load(path string) (*RunStateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRunStateNotFound
		}

		return nil, fmt.Errorf("failed to read run-state file %s: %w", path, err)
	}

	var file RunStateFile

	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse run-state file %s: %w", path, err)
	}

	return &file, nil
}

// Save atomically rewrites the run-state file at path: it writes to a
// temp file in the same directory, then renames it over the target, so
// a crash mid-write never leaves a truncated or corrupt file behind.
func Save(path string, file *RunStateFile) (err error) {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run-state file: %w", err)
	}

	dir := filepath.Dir(path)

	tempFile, err := os.CreateTemp(dir, ".featherflow-runstate-*")
	if err != nil {
		return fmt.Errorf("failed to create temp run-state file: %w", err)
	}

	defer func() {
		tempFile.Close()

		if err == nil {
			err = os.Rename(tempFile.Name(), path)
		} else {
			os.Remove(tempFile.Name())
		}
	}()

	if _, err = tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp run-state file: %w", err)
	}

	return nil
}

// MarkCompleted records a model's successful completion.
func (f *RunStateFile) MarkCompleted(name string, durationMs int64) {
	f.Models[name] = ModelRunRecord{Status: RunCompleted, DurationMs: durationMs}
}

// MarkFailed records a model's failure.
func (f *RunStateFile) MarkFailed(name string, errMsg string) {
	f.Models[name] = ModelRunRecord{Status: RunFailed, ErrorMessage: errMsg}
}
