package mailbox

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// defaultChatFile is the append-only JSONL chat log within the workspace.
	defaultChatFile = "chat.jsonl"

	// outboxDir is the directory name within a workspace that holds drop-files.
	outboxDir = "outbox"

	// dropExt is the file extension of per-participant drop-files.
	dropExt = ".md"
)

// Store provides file-based chat log and drop-file storage for one workspace.
// Chat messages are persisted as JSONL (one JSON object per line) in an
// append-only log; each participant additionally owns a drop-file under the
// outbox directory where it writes outgoing messages.
type Store struct {
	dir          string
	chatFile     string
	pollInterval time.Duration

	mu        sync.Mutex
	lastSeq   int64
	seqLoaded bool
}

// NewStore creates a Store rooted at the given workspace directory.
// The directory structure is created lazily on first write.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:          dir,
		chatFile:     defaultChatFile,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the workspace directory this store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// ChatPath returns the absolute path of the chat log file.
func (s *Store) ChatPath() string {
	return filepath.Join(s.dir, s.chatFile)
}

// OutboxPath returns the absolute path of the outbox directory.
func (s *Store) OutboxPath() string {
	return filepath.Join(s.dir, outboxDir)
}

// DropPath returns the drop-file path for a participant.
func (s *Store) DropPath(name string) string {
	return filepath.Join(s.dir, outboxDir, name+dropExt)
}

// DropName returns the participant name a drop-file path belongs to,
// or "" if the path is not a drop-file.
func (s *Store) DropName(path string) string {
	if filepath.Dir(path) != s.OutboxPath() {
		return ""
	}
	base := filepath.Base(path)
	if !strings.HasSuffix(base, dropExt) {
		return ""
	}
	return strings.TrimSuffix(base, dropExt)
}

// Append persists a message to the chat log and returns its assigned
// sequence number. If msg.Timestamp is zero, the current time is used.
// Writes are serialized via a mutex and use O_APPEND.
func (s *Store) Append(msg Message) (int64, error) {
	if msg.Origin == "" {
		return 0, fmt.Errorf("mailbox: message Origin field is required")
	}
	if msg.Kind == "" {
		msg.Kind = KindAgent
	}
	if !ValidateKind(msg.Kind) {
		return 0, fmt.Errorf("mailbox: unknown message kind %q", msg.Kind)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadSeqLocked(); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, fmt.Errorf("mailbox: create workspace: %w", err)
	}

	msg.Seq = s.lastSeq + 1
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("mailbox: marshal message: %w", err)
	}
	data = append(data, '\n')

	if err := appendFile(s.ChatPath(), data); err != nil {
		return 0, err
	}
	s.lastSeq = msg.Seq
	return msg.Seq, nil
}

// ReadAll returns all messages from the chat log in sequence order.
// Returns nil (not error) if the log does not exist. Malformed lines
// are skipped rather than failing the whole read.
func (s *Store) ReadAll() ([]Message, error) {
	f, err := os.Open(s.ChatPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mailbox: open chat log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			// Skip malformed lines rather than failing entirely
			continue
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mailbox: scan chat log: %w", err)
	}

	sortMessages(messages)
	return messages, nil
}

// LastSeq returns the highest sequence number assigned so far, or 0 if
// the chat log is empty or missing.
func (s *Store) LastSeq() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadSeqLocked(); err != nil {
		return 0, err
	}
	return s.lastSeq, nil
}

// EnsureDrop creates an empty drop-file for a participant if it does not
// already exist. An existing drop-file (and its content) is left untouched.
func (s *Store) EnsureDrop(name string) error {
	if err := os.MkdirAll(s.OutboxPath(), 0o755); err != nil {
		return fmt.Errorf("mailbox: create outbox: %w", err)
	}
	f, err := os.OpenFile(s.DropPath(name), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("mailbox: create drop-file: %w", err)
	}
	return f.Close()
}

// ReadDrop returns the current content of a participant's drop-file.
// A missing drop-file reads as empty rather than an error.
func (s *Store) ReadDrop(name string) (string, error) {
	data, err := os.ReadFile(s.DropPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("mailbox: read drop-file: %w", err)
	}
	return string(data), nil
}

// ClearDrop truncates a participant's drop-file to empty. Clearing an
// already-empty or missing drop-file succeeds; the file exists and is
// empty afterwards either way.
func (s *Store) ClearDrop(name string) error {
	if err := os.MkdirAll(s.OutboxPath(), 0o755); err != nil {
		return fmt.Errorf("mailbox: create outbox: %w", err)
	}
	if err := os.WriteFile(s.DropPath(name), nil, 0o644); err != nil {
		return fmt.Errorf("mailbox: clear drop-file: %w", err)
	}
	return nil
}

// ResetAll removes the chat log and truncates every drop-file, returning
// the workspace to a blank slate. Sequence numbering restarts at 1.
func (s *Store) ResetAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.ChatPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("mailbox: remove chat log: %w", err)
	}
	s.lastSeq = 0
	s.seqLoaded = true

	entries, err := os.ReadDir(s.OutboxPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("mailbox: read outbox: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), dropExt) {
			continue
		}
		path := filepath.Join(s.OutboxPath(), entry.Name())
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("mailbox: clear drop-file: %w", err)
		}
	}
	return nil
}

// loadSeqLocked initializes lastSeq from the existing chat log on first use.
// Must be called with the mutex held.
func (s *Store) loadSeqLocked() error {
	if s.seqLoaded {
		return nil
	}
	messages, err := s.ReadAll()
	if err != nil {
		return err
	}
	for _, msg := range messages {
		if msg.Seq > s.lastSeq {
			s.lastSeq = msg.Seq
		}
	}
	s.seqLoaded = true
	return nil
}

// appendFile appends data to a file, creating it if needed. Each JSONL
// line is small enough that O_APPEND provides atomicity guarantees on
// POSIX systems (writes under PIPE_BUF are atomic).
func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("mailbox: open chat log for append: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("mailbox: append to chat log: %w", err)
	}

	return f.Close()
}
