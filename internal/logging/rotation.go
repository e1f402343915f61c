package logging

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig holds configuration for log rotation.
type RotationConfig struct {
	// MaxSizeMB is the maximum size of a log file in megabytes before rotation.
	// A value of 0 disables rotation.
	MaxSizeMB int
	// MaxBackups is the number of old log files to keep.
	// A value of 0 keeps no backups.
	MaxBackups int
	// Compress determines whether rotated log files are gzip compressed.
	Compress bool
}

// DefaultRotationConfig returns a RotationConfig with sensible defaults.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSizeMB:  10,
		MaxBackups: 3,
		Compress:   false,
	}
}

// RotatingWriter is an io.Writer backed by a file that rotates when the
// file exceeds a size threshold. Backups are numbered .1 (newest) through
// .N (oldest). It is safe for concurrent use.
type RotatingWriter struct {
	mu sync.Mutex

	filePath   string
	maxBytes   int64
	maxBackups int
	compress   bool

	file *os.File
	size int64
}

// NewRotatingWriter creates a RotatingWriter for the given file path.
// If config.MaxSizeMB is 0, rotation is disabled and the writer behaves
// like a plain append-mode file writer.
func NewRotatingWriter(filePath string, config RotationConfig) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		filePath:   filePath,
		maxBytes:   int64(config.MaxSizeMB) * 1024 * 1024,
		maxBackups: config.MaxBackups,
		compress:   config.Compress,
	}

	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// open opens the log file for appending and records its current size.
// The caller must hold the mutex.
func (rw *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(rw.filePath), 0755); err != nil {
		return fmt.Errorf("logging: create log directory: %w", err)
	}

	file, err := os.OpenFile(rw.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("logging: open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("logging: stat log file: %w", err)
	}

	rw.file = file
	rw.size = info.Size()
	return nil
}

// Write implements io.Writer. It rotates the file first if this write
// would push it past the size threshold.
func (rw *RotatingWriter) Write(p []byte) (n int, err error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, fmt.Errorf("logging: writer is closed")
	}

	if rw.maxBytes > 0 && rw.size+int64(len(p)) > rw.maxBytes {
		if err := rw.rotate(); err != nil {
			// Keep writing to the current file rather than dropping log
			// data; surface the rotation failure on stderr.
			fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
		}
	}

	n, err = rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// rotate shifts backups up by one, renames the live file to .1, and opens
// a fresh file. The caller must hold the mutex.
func (rw *RotatingWriter) rotate() error {
	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("logging: sync before rotate: %w", err)
	}
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("logging: close before rotate: %w", err)
	}
	rw.file = nil

	rw.shiftBackups()

	backup := rw.backupPath(1)
	if err := os.Rename(rw.filePath, backup); err != nil {
		if openErr := rw.open(); openErr != nil {
			return fmt.Errorf("logging: rename log file and reopen: %w", openErr)
		}
		return fmt.Errorf("logging: rename log file: %w", err)
	}

	if rw.compress && rw.maxBackups > 0 {
		if err := compressFile(backup); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: log compression failed: %v\n", err)
		}
	}

	return rw.open()
}

// shiftBackups renumbers existing backups, discarding the oldest when the
// backup budget is exceeded. Both plain and gzipped backups are handled.
func (rw *RotatingWriter) shiftBackups() {
	if rw.maxBackups <= 0 {
		os.Remove(rw.backupPath(1))
		os.Remove(rw.backupPath(1) + ".gz")
		return
	}

	os.Remove(rw.backupPath(rw.maxBackups))
	os.Remove(rw.backupPath(rw.maxBackups) + ".gz")

	for i := rw.maxBackups - 1; i >= 1; i-- {
		oldPath := rw.backupPath(i)
		newPath := rw.backupPath(i + 1)

		if _, err := os.Stat(oldPath + ".gz"); err == nil {
			os.Rename(oldPath+".gz", newPath+".gz")
		} else if _, err := os.Stat(oldPath); err == nil {
			os.Rename(oldPath, newPath)
		}
	}
}

// backupPath returns the path for a backup file with the given number.
func (rw *RotatingWriter) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", rw.filePath, n)
}

// compressFile gzips a rotated backup in place, removing the original only
// after the compressed copy is complete.
func compressFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	gzPath := path + ".gz"
	gzFile, err := os.Create(gzPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", gzPath, err)
	}

	gzWriter := gzip.NewWriter(gzFile)
	if _, err := gzWriter.Write(data); err != nil {
		_ = gzFile.Close()
		os.Remove(gzPath)
		return fmt.Errorf("write %s: %w", gzPath, err)
	}
	if err := gzWriter.Close(); err != nil {
		_ = gzFile.Close()
		os.Remove(gzPath)
		return fmt.Errorf("finalize %s: %w", gzPath, err)
	}
	if err := gzFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", gzPath, err)
	}

	os.Remove(path)
	return nil
}

// Sync flushes any buffered data to the underlying file.
func (rw *RotatingWriter) Sync() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	return rw.file.Sync()
}

// Close syncs and closes the underlying file.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}

	if err := rw.file.Sync(); err != nil {
		return fmt.Errorf("logging: sync log file: %w", err)
	}
	if err := rw.file.Close(); err != nil {
		return fmt.Errorf("logging: close log file: %w", err)
	}
	rw.file = nil
	return nil
}

// CurrentSize returns the current size of the log file in bytes.
func (rw *RotatingWriter) CurrentSize() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.size
}

// FilePath returns the path to the log file.
func (rw *RotatingWriter) FilePath() string {
	return rw.filePath
}
