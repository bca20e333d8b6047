package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewJSONAndText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Options{Level: slog.LevelInfo, Format: "json"}).Info("hello", slog.String("tool", "page-speed"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json handler output should decode: %v", err)
	}
	if record["msg"] != "hello" || record["tool"] != "page-speed" {
		t.Errorf("unexpected record: %v", record)
	}

	buf.Reset()
	logger := New(&buf, Options{Level: slog.LevelWarn, Format: "text"})
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "msg=kept") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}

func TestSetupWritesFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "logs", "seolab.log")
	logger, closer, err := Setup(Options{Level: slog.LevelInfo, Format: "json", File: path})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	logger.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"to file"`) {
		t.Errorf("log file missing record: %q", data)
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.com/", "https://example.com"},
		{"https://example.com/blog/?utm=1", "https://example.com/blog"},
		{"example.com", "https://example.com"},
		{"http://localhost:8082/page", ""},
		{"https://127.0.0.1/", ""},
		{"https://example.com/api/keywords", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := cleanURL(tt.in); got != tt.want {
			t.Errorf("cleanURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatistics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, StatisticsFile)

	t.Run("Tracking", func(t *testing.T) {
		s, err := NewStatistics(path, false)
		if err != nil {
			t.Fatalf("new statistics: %v", err)
		}

		s.TrackVisitor("10.0.0.1")
		s.TrackVisitor("10.0.0.2")
		s.TrackVisitor("10.0.0.1")
		s.TrackRequest("/api/keywords", 100, false)
		s.TrackRequest("/api/audit", 300, true)
		s.TrackTarget("example.com")
		s.TrackTarget("https://example.com/")
		s.TrackTarget("localhost")

		if got := s.GetUniqueVisitorsCount(); got != 2 {
			t.Errorf("unique visitors = %d, want 2", got)
		}
		if got := s.GetErrorRate(); got != 50 {
			t.Errorf("error rate = %v, want 50", got)
		}
		if got := s.GetPopularTargets(5); got["https://example.com"] != 2 || len(got) != 1 {
			t.Errorf("popular targets = %v", got)
		}

		summary := s.GetStatistics()
		if summary["totalRequests"] != 2 || summary["averageLoadTime"] != 200.0 {
			t.Errorf("unexpected summary: %v", summary)
		}
		if _, ok := summary["popularTargets"]; ok {
			t.Error("popular targets must be hidden outside dev mode")
		}

		if err := s.Save(); err != nil {
			t.Fatalf("save: %v", err)
		}
	})

	t.Run("Reload", func(t *testing.T) {
		s, err := NewStatistics(path, true)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if s.TotalRequestCount() != 2 {
			t.Errorf("total requests = %d after reload", s.TotalRequestCount())
		}

		s.TrackRequest("/api/keywords", 200, false)
		if s.AverageLoadTime != 200 {
			t.Errorf("average = %v, want 200", s.AverageLoadTime)
		}

		summary := s.GetStatistics()
		paths, ok := summary["pathRequests"].(map[string]int)
		if !ok || paths["/api/keywords"] != 2 {
			t.Errorf("path requests = %v", summary["pathRequests"])
		}
	})

	t.Run("VisitorsExpire", func(t *testing.T) {
		s, err := NewStatistics(filepath.Join(dir, "other.json"), false)
		if err != nil {
			t.Fatal(err)
		}
		now := time.Now()
		s.now = func() time.Time { return now }
		s.TrackVisitor("10.0.0.9")

		now = now.Add(25 * time.Hour)
		if got := s.GetUniqueVisitorsCount(); got != 0 {
			t.Errorf("visitors older than 24h counted: %d", got)
		}
	})

	t.Run("CorruptFile", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := NewStatistics(bad, false)
		if err == nil {
			t.Fatal("expected decode error")
		}
		if s == nil {
			t.Fatal("statistics should still be usable")
		}
	})
}

func TestTopLockedOrdering(t *testing.T) {
	got := topLocked(map[string]int{"a": 1, "b": 5, "c": 5, "d": 2}, 2)
	if len(got) != 2 || got["b"] != 5 || got["c"] != 5 {
		t.Errorf("topLocked = %v", got)
	}
}
