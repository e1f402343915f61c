package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StateFileName is the name of the session state file within a workspace.
const StateFileName = "session.json"

// State records what a running (or previously run) session was working on.
// It lives alongside the chat log in the workspace so a later invocation
// can pick up the challenge and participant roster without re-asking.
type State struct {
	Challenge    string    `json:"challenge"`
	Participants []string  `json:"participants"`
	StartedAt    time.Time `json:"started_at"`
	ResetAt      time.Time `json:"reset_at,omitempty"`
	Implementer  string    `json:"implementer,omitempty"`
}

// StatePath returns the state file path for a workspace.
func StatePath(workspace string) string {
	return filepath.Join(workspace, StateFileName)
}

// SaveState persists the state atomically into the workspace.
func SaveState(workspace string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return fmt.Errorf("session: create workspace: %w", err)
	}
	return atomicWriteFile(StatePath(workspace), data, 0644)
}

// LoadState reads the state file from a workspace. A missing file returns
// nil state and nil error.
func LoadState(workspace string) (*State, error) {
	data, err := os.ReadFile(StatePath(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("session: parse state: %w", err)
	}
	return &state, nil
}

// atomicWriteFile writes data to path via a temp file and rename, so a
// crash mid-write never leaves a truncated state file behind.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Temp file in the same directory so the rename stays on one filesystem
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("session: create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("session: write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("session: sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("session: close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("session: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("session: rename temp file: %w", err)
	}

	success = true
	return nil
}
