package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		ok       bool
	}{
		{"DEBUG", DebugLevel, true},
		{"debug", DebugLevel, true},
		{"info", InfoLevel, true},
		{"", InfoLevel, true},
		{"Warning", WarnLevel, true},
		{"warn", WarnLevel, true},
		{" error ", ErrorLevel, true},
		{"verbose", InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if DebugLevel.String() != "DEBUG" || ErrorLevel.String() != "ERROR" {
		t.Errorf("unexpected level names: %s %s", DebugLevel, ErrorLevel)
	}
	if Level(42).String() != "UNKNOWN" {
		t.Errorf("Level(42).String() = %s, want UNKNOWN", Level(42))
	}
}

func TestFieldConstructors(t *testing.T) {
	t.Run("Duration", func(t *testing.T) {
		f := Duration("elapsed", 1500*time.Millisecond)
		if f.Key != "elapsed" || f.Value != "1.5s" {
			t.Errorf("Duration() = %+v", f)
		}
	})

	t.Run("Error", func(t *testing.T) {
		f := Error(errors.New("boom"))
		if f.Key != "error" || f.Value != "boom" {
			t.Errorf("Error() = %+v", f)
		}
	})

	t.Run("Error_nil", func(t *testing.T) {
		f := Error(nil)
		if f.Key != "error" || f.Value != nil {
			t.Errorf("Error(nil) = %+v", f)
		}
	})

	t.Run("ASN", func(t *testing.T) {
		f := ASN(3356)
		if f.Key != "asn" || f.Value != uint32(3356) {
			t.Errorf("ASN() = %+v", f)
		}
	})

	t.Run("Strategy", func(t *testing.T) {
		f := Strategy("bfs")
		if f.Key != "strategy" || f.Value != "bfs" {
			t.Errorf("Strategy() = %+v", f)
		}
	})
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("graph loaded", Count(10), Path("links.txt"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Level = %v, want INFO", entry.Level)
	}
	if entry.Message != "graph loaded" {
		t.Errorf("Message = %v, want 'graph loaded'", entry.Message)
	}
	if entry.Fields["count"] != float64(10) {
		t.Errorf("Fields[count] = %v, want 10", entry.Fields["count"])
	}
	if entry.Fields["path"] != "links.txt" {
		t.Errorf("Fields[path] = %v, want links.txt", entry.Fields["path"])
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(lines))
	}

	for i, want := range []string{"WARN", "ERROR"} {
		var entry LogEntry
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			t.Fatalf("Failed to unmarshal entry %d: %v", i, err)
		}
		if entry.Level != want {
			t.Errorf("entry %d level = %v, want %v", i, entry.Level, want)
		}
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("selection"), RunID("r-1"))

	logger.SetLevel(ErrorLevel)
	child.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("child should follow parent level, got output %q", buf.String())
	}

	child.Error("selection failed", Strategy("high-degree"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Fields["component"] != "selection" || entry.Fields["run_id"] != "r-1" {
		t.Errorf("preset fields missing: %v", entry.Fields)
	}
	if entry.Fields["strategy"] != "high-degree" {
		t.Errorf("strategy field = %v", entry.Fields["strategy"])
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	logger.Info("plain")

	if strings.Contains(buf.String(), `"fields"`) {
		t.Errorf("expected fields to be omitted, got %s", buf.String())
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	timer := StartTimer(logger, "stage complete", Stage("load"))
	elapsed := timer.End(Count(3))
	if elapsed < 0 {
		t.Errorf("negative elapsed time %v", elapsed)
	}

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Fields["stage"] != "load" || entry.Fields["count"] != float64(3) {
		t.Errorf("unexpected fields %v", entry.Fields)
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Error("latency field missing")
	}
}

func TestTimedOperation_EndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "write failed", Stage("write")).EndError(errors.New("disk full"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Level != "ERROR" || entry.Fields["error"] != "disk full" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("ignored")
	if l.With(Count(1)) == nil {
		t.Error("With returned nil")
	}
}
