package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Iron-Ham/roundtable/internal/logging"
)

// LockFileName is the name of the lock file within a workspace.
const LockFileName = "session.lock"

// ErrWorkspaceLocked is returned when the workspace already hosts a live session.
var ErrWorkspaceLocked = errors.New("workspace is locked by another process")

// Lock marks a workspace as owned by one running session. Two sessions
// sharing a workspace would interleave appends in the chat log and fight
// over the outbox files, so the lock is mandatory, not advisory.
type Lock struct {
	Workspace string    `json:"workspace"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`

	// Internal fields (not serialized)
	lockFile string
	logger   *logging.Logger
}

// AcquireLock attempts to take exclusive ownership of the workspace.
// A lock left behind by a dead process is cleaned up and re-acquired.
// Returns ErrWorkspaceLocked if a live process holds the workspace.
// The logger is optional and may be nil.
func AcquireLock(workspace string, logger *logging.Logger) (*Lock, error) {
	lockPath := filepath.Join(workspace, LockFileName)

	if existing, err := ReadLock(lockPath); err == nil {
		if isProcessAlive(existing.PID) {
			if logger != nil {
				logger.Error("failed to acquire workspace lock",
					"workspace", workspace,
					"holder_pid", existing.PID,
					"holder_host", existing.Hostname,
				)
			}
			return nil, fmt.Errorf("%w: PID %d on %s", ErrWorkspaceLocked, existing.PID, existing.Hostname)
		}
		oldPID := existing.PID
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("session: remove stale lock: %w", err)
		}
		if logger != nil {
			logger.Warn("stale workspace lock cleaned", "workspace", workspace, "old_pid", oldPID)
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	lock := &Lock{
		Workspace: workspace,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
		lockFile:  lockPath,
		logger:    logger,
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("session: marshal lock: %w", err)
	}

	// O_EXCL fails if another process created the file between our check
	// and now
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			if existing, readErr := ReadLock(lockPath); readErr == nil {
				return nil, fmt.Errorf("%w: PID %d on %s", ErrWorkspaceLocked, existing.PID, existing.Hostname)
			}
			return nil, ErrWorkspaceLocked
		}
		return nil, fmt.Errorf("session: create lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(lockPath)
		return nil, fmt.Errorf("session: write lock file: %w", err)
	}

	if logger != nil {
		logger.Info("workspace lock acquired", "workspace", workspace, "pid", lock.PID)
	}
	return lock, nil
}

// Release removes the lock file. Safe to call multiple times, and refuses
// to remove a lock some other process now owns.
func (l *Lock) Release() error {
	if l == nil || l.lockFile == "" {
		return nil
	}

	existing, err := ReadLock(l.lockFile)
	if err != nil {
		return nil
	}
	if existing.PID != l.PID {
		return nil
	}

	if err := os.Remove(l.lockFile); err != nil {
		return err
	}
	if l.logger != nil {
		l.logger.Info("workspace lock released", "workspace", l.Workspace)
	}
	return nil
}

// ReadLock reads a lock file and returns the Lock info.
func ReadLock(lockPath string) (*Lock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("session: parse lock file: %w", err)
	}
	lock.lockFile = lockPath
	return &lock, nil
}

// IsLocked checks whether a workspace is held by a live process. Returns
// the lock info when one exists, even if stale.
func IsLocked(workspace string) (*Lock, bool) {
	lock, err := ReadLock(filepath.Join(workspace, LockFileName))
	if err != nil {
		return nil, false
	}
	if !isProcessAlive(lock.PID) {
		return lock, false
	}
	return lock, true
}

// CleanStaleLock removes the workspace's lock file if the owning process
// is gone. Returns true if a stale lock was cleaned.
func CleanStaleLock(workspace string, logger *logging.Logger) (bool, error) {
	lockPath := filepath.Join(workspace, LockFileName)

	lock, err := ReadLock(lockPath)
	if err != nil {
		return false, nil
	}
	if isProcessAlive(lock.PID) {
		return false, nil
	}

	if err := os.Remove(lockPath); err != nil {
		return false, fmt.Errorf("session: remove stale lock: %w", err)
	}
	if logger != nil {
		logger.Warn("stale workspace lock cleaned", "workspace", workspace, "old_pid", lock.PID)
	}
	return true, nil
}

// isProcessAlive checks if a process with the given PID is still running.
func isProcessAlive(pid int) bool {
	// On Unix, signal 0 probes for existence without affecting the process
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
