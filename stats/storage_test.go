package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("Record", func(t *testing.T) {
		storage.Record("site-audit", 200*time.Millisecond, Completed)
		storage.Record("site-audit", 400*time.Millisecond, Completed)
		storage.Record("site-audit", 0, Cancelled)
		storage.Record("keyword-research", time.Second, Failed)

		stats := storage.GetCurrentStats()
		audit := stats.Tools["site-audit"]
		if audit.Requests != 3 {
			t.Errorf("Expected 3 audit requests, got %d", audit.Requests)
		}
		if audit.Cancelled != 1 {
			t.Errorf("Expected 1 cancelled audit, got %d", audit.Cancelled)
		}
		if audit.TotalLatencyMs != 600 {
			t.Errorf("Expected 600ms total latency, got %d", audit.TotalLatencyMs)
		}
		if got := audit.AverageLatencyMs(); got != 300 {
			t.Errorf("Expected 300ms average latency, got %v", got)
		}
		if kw := stats.Tools["keyword-research"]; kw.Failed != 1 || kw.TotalLatencyMs != 0 {
			t.Errorf("Unexpected keyword stats: %+v", kw)
		}
	})

	t.Run("SnapshotIsCopy", func(t *testing.T) {
		stats := storage.GetCurrentStats()
		stats.Tools["site-audit"] = ToolStats{Requests: 999}
		if storage.GetCurrentStats().Tools["site-audit"].Requests == 999 {
			t.Error("GetCurrentStats should return a copy")
		}
	})

	t.Run("Persistence", func(t *testing.T) {
		if err := storage.save(); err != nil {
			t.Fatalf("save: %v", err)
		}

		storage2, err := NewStorage(tempDir)
		if err != nil {
			t.Fatalf("Failed to create second storage: %v", err)
		}
		defer storage2.Shutdown()

		stats := storage2.GetCurrentStats()
		if stats.Tools["site-audit"].Requests != 3 {
			t.Errorf("Expected 3 audit requests after reload, got %d", stats.Tools["site-audit"].Requests)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		oldMonth := time.Now().AddDate(0, -2, 0).Format("2006-01")
		previousMonth := time.Now().AddDate(0, -1, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.stats[oldMonth] = &MonthlyStats{Tools: map[string]ToolStats{"site-audit": {Requests: 100}}}
		storage.stats[previousMonth] = &MonthlyStats{Tools: map[string]ToolStats{"site-audit": {Requests: 5}}}
		storage.mutex.Unlock()

		storage.Cleanup(2)

		if _, exists := storage.GetMonthlyStats(oldMonth); exists {
			t.Error("Old stats should have been cleaned up")
		}
		if _, exists := storage.GetMonthlyStats(previousMonth); !exists {
			t.Error("Previous month should be retained")
		}
		months := storage.GetAllMonths()
		if len(months) != 2 || months[0] < months[1] {
			t.Errorf("Expected two months newest first, got %v", months)
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats().Tools["mobile-test"].Requests

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					storage.Record("mobile-test", time.Millisecond, Completed)
					storage.GetCurrentStats()
				}
			}()
		}
		wg.Wait()

		got := storage.GetCurrentStats().Tools["mobile-test"].Requests - before
		if got != 1000 {
			t.Errorf("Expected 1000 requests, got %d", got)
		}
	})

	t.Run("ShutdownFlushes", func(t *testing.T) {
		if err := storage.Shutdown(); err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
		// Second call must not block or panic.
		if err := storage.Shutdown(); err != nil {
			t.Fatalf("second Shutdown: %v", err)
		}

		info, err := os.Stat(filepath.Join(tempDir, "usage.json"))
		if err != nil {
			t.Fatalf("Failed to stat file: %v", err)
		}
		if info.Size() == 0 {
			t.Error("usage file should not be empty")
		}
	})
}

func TestStorageMonthRollover(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Shutdown()

	now := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	storage.now = func() time.Time { return now }
	storage.Record("page-speed", time.Second, Completed)

	now = now.Add(2 * time.Minute)
	storage.Record("page-speed", time.Second, Completed)

	jan, ok := storage.GetMonthlyStats("2026-01")
	if !ok || jan.Tools["page-speed"].Requests != 1 {
		t.Errorf("January stats = %+v, %v", jan, ok)
	}
	feb, ok := storage.GetMonthlyStats("2026-02")
	if !ok || feb.Tools["page-speed"].Requests != 1 {
		t.Errorf("February stats = %+v, %v", feb, ok)
	}
}
