package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Outcome classifies a finished analysis call.
type Outcome int

const (
	Completed Outcome = iota
	Cancelled
	Failed
)

// ToolStats counts the calls made to one tool
type ToolStats struct {
	Requests       int   `json:"requests"`
	Cancelled      int   `json:"cancelled"`
	Failed         int   `json:"failed"`
	TotalLatencyMs int64 `json:"total_latency_ms"`
}

// AverageLatencyMs returns the mean latency of completed calls.
func (t ToolStats) AverageLatencyMs() float64 {
	completed := t.Requests - t.Cancelled - t.Failed
	if completed <= 0 {
		return 0
	}
	return float64(t.TotalLatencyMs) / float64(completed)
}

// MonthlyStats represents tool usage for a specific month
type MonthlyStats struct {
	Tools       map[string]ToolStats `json:"tools"`
	LastUpdated time.Time            `json:"last_updated"`
}

func (m *MonthlyStats) clone() MonthlyStats {
	out := MonthlyStats{
		Tools:       make(map[string]ToolStats, len(m.Tools)),
		LastUpdated: m.LastUpdated,
	}
	for k, v := range m.Tools {
		out.Tools[k] = v
	}
	return out
}

// Storage handles persistent storage of usage statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	stop        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "usage.json"),
		writeBuffer: make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		now:         time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

// load reads statistics from file
func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// save writes statistics to file
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Write to temporary file first, then rename
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// backgroundWriter handles periodic writes to disk
func (s *Storage) backgroundWriter() {
	defer close(s.done)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-s.writeBuffer:
			s.saveAndLog()
		case <-ticker.C:
			s.saveAndLog()
		}
	}
}

func (s *Storage) saveAndLog() {
	if err := s.save(); err != nil {
		slog.Warn("usage stats write failed", slog.String("error", err.Error()))
	}
}

// currentMonth returns the current month key in YYYY-MM format
func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// Record adds one call to tool for the current month.
func (s *Storage) Record(tool string, latency time.Duration, outcome Outcome) {
	month := s.currentMonth()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	monthly, exists := s.stats[month]
	if !exists {
		monthly = &MonthlyStats{Tools: make(map[string]ToolStats)}
		s.stats[month] = monthly
	}
	if monthly.Tools == nil {
		monthly.Tools = make(map[string]ToolStats)
	}

	ts := monthly.Tools[tool]
	ts.Requests++
	switch outcome {
	case Cancelled:
		ts.Cancelled++
	case Failed:
		ts.Failed++
	default:
		ts.TotalLatencyMs += latency.Milliseconds()
	}
	monthly.Tools[tool] = ts
	monthly.LastUpdated = s.now()

	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(s.currentMonth())
	return stats
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return stats.clone(), true
	}
	return MonthlyStats{Tools: map[string]ToolStats{}}, false
}

// Cleanup removes statistics older than retainMonths, counting the current month.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}

	now := s.now()
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[now.AddDate(0, -i, 0).Format("2006-01")] = true
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}

	s.requestWrite()
	slog.Debug("usage stats cleaned up", slog.Int("retained_months", retainMonths))
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and flushes statistics to disk.
func (s *Storage) Shutdown() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return s.save()
}
