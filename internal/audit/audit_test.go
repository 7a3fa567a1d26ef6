package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLogger_RecordAndEvents(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	now := time.Now().Truncate(time.Millisecond)

	events := []Event{
		{Timestamp: now, Type: EventCreate, Workspace: "ws-1", Kind: "docker", Details: "image=python:3.12-slim"},
		{Timestamp: now.Add(time.Second), Type: EventExec, Workspace: "ws-1", Kind: "docker", Details: "exit=0"},
		{Timestamp: now.Add(2 * time.Second), Type: EventClose, Workspace: "ws-1", Kind: "docker"},
		{Timestamp: now.Add(3 * time.Second), Type: EventTeardown, Workspace: "ws-1", Kind: "docker"},
	}

	for _, e := range events {
		if err := logger.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	result, err := logger.Events("ws-1")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Type != events[i].Type {
			t.Errorf("event %d: type = %q, want %q", i, e.Type, events[i].Type)
		}
		if e.Workspace != events[i].Workspace {
			t.Errorf("event %d: workspace = %q, want %q", i, e.Workspace, events[i].Workspace)
		}
		if e.Kind != events[i].Kind {
			t.Errorf("event %d: kind = %q, want %q", i, e.Kind, events[i].Kind)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "workspaces", "ws-1.events.jsonl")); err != nil {
		t.Errorf("expected log file under workspaces/: %v", err)
	}
}

func TestLogger_EventsEmpty(t *testing.T) {
	logger := NewLogger(t.TempDir())

	result, err := logger.Events("nonexistent")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_RecordEvent(t *testing.T) {
	logger := NewLogger(t.TempDir())

	if err := logger.RecordEvent(EventCreate, "my-ws", "host", "dir=/tmp/x"); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	events, err := logger.Events("my-ws")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventCreate || e.Kind != "host" || e.Details != "dir=/tmp/x" {
		t.Errorf("event = %+v", e)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set automatically")
	}
}

func TestLogger_RejectsEscapingIDs(t *testing.T) {
	logger := NewLogger(t.TempDir())

	for _, id := range []string{"", "../escape", "a/b"} {
		if err := logger.RecordEvent(EventCreate, id, "host", ""); err == nil {
			t.Errorf("Record(%q) should fail", id)
		}
		if _, err := logger.Events(id); err == nil {
			t.Errorf("Events(%q) should fail", id)
		}
	}
}

func TestLogger_Workspaces(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	ids, err := logger.Workspaces()
	if err != nil || len(ids) != 0 {
		t.Fatalf("Workspaces() on empty dir = %v, %v", ids, err)
	}

	_ = logger.RecordEvent(EventCreate, "b", "host", "")
	_ = logger.RecordEvent(EventCreate, "a", "docker", "")
	if err := os.WriteFile(filepath.Join(dir, "workspaces", "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ids, err = logger.Workspaces()
	if err != nil {
		t.Fatalf("Workspaces failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("Workspaces() = %v, want [a b]", ids)
	}
}

func TestLogger_Remove(t *testing.T) {
	logger := NewLogger(t.TempDir())

	_ = logger.RecordEvent(EventCreate, "removable", "host", "")

	if err := logger.Remove("removable"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	events, err := logger.Events("removable")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events after remove, want 0", len(events))
	}

	if err := logger.Remove("never-existed"); err != nil {
		t.Errorf("Remove of a missing log should not fail: %v", err)
	}
}

func TestLogger_MalformedLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	_ = logger.RecordEvent(EventCreate, "ws", "host", "")
	path := filepath.Join(dir, "workspaces", "ws.events.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("not json\n\n")
	f.Close()
	_ = logger.RecordEvent(EventClose, "ws", "host", "")

	events, err := logger.Events("ws")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestLogger_ConcurrentRecord(t *testing.T) {
	logger := NewLogger(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = logger.RecordEvent(EventExec, "busy", "host", fmt.Sprintf("n=%d", i))
		}(i)
	}
	wg.Wait()

	events, err := logger.Events("busy")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 20 {
		t.Errorf("got %d events, want 20", len(events))
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	if err := r.Record(Event{Type: EventCreate}); err != nil {
		t.Errorf("Nop.Record() = %v", err)
	}
}
