// Package audit records workspace lifecycle events.
// Events are stored as JSON Lines (JSONL) files, one per workspace.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventCreate   EventType = "create"
	EventClose    EventType = "close"
	EventTeardown EventType = "teardown"
	EventExec     EventType = "exec"
	EventError    EventType = "error"
)

const eventSuffix = ".events.jsonl"

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Workspace string    `json:"workspace"`
	Kind      string    `json:"kind,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Recorder receives lifecycle events.
type Recorder interface {
	Record(event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(Event) error { return nil }

// Logger writes and reads audit events for workspaces.
// Events are stored in {stateDir}/workspaces/{id}.events.jsonl.
type Logger struct {
	stateDir string
	mu       sync.Mutex
}

// NewLogger creates a new audit logger rooted at stateDir.
func NewLogger(stateDir string) *Logger {
	return &Logger{stateDir: stateDir}
}

func (l *Logger) dir() string {
	return filepath.Join(l.stateDir, "workspaces")
}

// eventPath returns the path to the JSONL event log for a workspace.
// The id is joined securely so it cannot name a file outside the log dir.
func (l *Logger) eventPath(workspace string) (string, error) {
	if workspace == "" || strings.ContainsRune(workspace, '/') {
		return "", fmt.Errorf("invalid workspace id %q", workspace)
	}
	return securejoin.SecureJoin(l.dir(), workspace+eventSuffix)
}

// Record appends an event to the workspace's audit log.
func (l *Logger) Record(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	path, err := l.eventPath(event.Workspace)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// RecordEvent is a convenience method that creates and records an event.
func (l *Logger) RecordEvent(eventType EventType, workspace, kind, details string) error {
	return l.Record(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Workspace: workspace,
		Kind:      kind,
		Details:   details,
	})
}

// Events reads all events for a workspace in chronological order.
func (l *Logger) Events(workspace string) ([]Event, error) {
	path, err := l.eventPath(workspace)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}

// Workspaces lists the ids that have an audit log, sorted.
func (l *Logger) Workspaces() ([]string, error) {
	entries, err := os.ReadDir(l.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), eventSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), eventSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// Remove deletes the audit log for a workspace.
func (l *Logger) Remove(workspace string) error {
	path, err := l.eventPath(workspace)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
