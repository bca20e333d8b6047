package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// StatisticsFile is the file name used inside the data directory.
const StatisticsFile = "statistics.json"

// Statistics represents the collected traffic statistics
type Statistics struct {
	UniqueVisitors  map[string]time.Time `json:"uniqueVisitors"`  // IP -> Last Visit Time
	TotalRequests   int                  `json:"totalRequests"`   // Tracked API requests
	ErrorCount      int                  `json:"errorCount"`      // Responses with status >= 400
	PathRequests    map[string]int       `json:"pathRequests"`    // Route -> Count
	PopularTargets  map[string]int       `json:"popularTargets"`  // Analysed URL or domain -> Count
	AverageLoadTime float64              `json:"averageLoadTime"` // Milliseconds
	TotalLoadTime   float64              `json:"totalLoadTime"`
	LastPersisted   time.Time            `json:"lastPersisted"`

	mutex   sync.RWMutex
	path    string
	devMode bool
	now     func() time.Time
}

// NewStatistics creates statistics persisted to path, loading any previous
// snapshot. devMode exposes per-path and per-target detail.
func NewStatistics(path string, devMode bool) (*Statistics, error) {
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		PathRequests:   make(map[string]int),
		PopularTargets: make(map[string]int),
		LastPersisted:  time.Now(),
		path:           path,
		devMode:        devMode,
		now:            time.Now,
	}

	if err := s.Load(); err != nil {
		return s, err
	}
	return s, nil
}

// TrackVisitor records a unique visitor
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = s.now()
}

// TrackRequest records an API request and its latency in milliseconds.
func (s *Statistics) TrackRequest(path string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.TotalRequests++
	s.PathRequests[path]++

	if hasError {
		s.ErrorCount++
	}

	s.TotalLoadTime += loadTime
	s.AverageLoadTime = s.TotalLoadTime / float64(s.TotalRequests)
}

// TrackTarget counts a submitted URL or domain.
func (s *Statistics) TrackTarget(target string) {
	cleaned := cleanURL(target)
	if cleaned == "" {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.PopularTargets[cleaned]++
}

// TotalRequestCount returns the number of tracked requests.
func (s *Statistics) TotalRequestCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.TotalRequests
}

// cleanURL reduces a URL or bare domain to scheme://host/path. Local hosts
// and our own API paths are dropped.
func cleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	if strings.Contains(host, "localhost") ||
		strings.Contains(host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleaned := u.Scheme + "://" + host
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}

	return strings.TrimSuffix(cleaned, "/")
}

func (s *Statistics) uniqueVisitorsLocked() int {
	count := 0
	cutoff := s.now().Add(-24 * time.Hour)

	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

func (s *Statistics) errorRateLocked() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return (float64(s.ErrorCount) / float64(s.TotalRequests)) * 100
}

// topLocked returns the n highest counts, ties broken by key.
func topLocked(counts map[string]int, n int) map[string]int {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	if len(keys) > n {
		keys = keys[:n]
	}
	result := make(map[string]int, len(keys))
	for _, k := range keys {
		result[k] = counts[k]
	}
	return result
}

// GetUniqueVisitorsCount returns the number of unique visitors in the last 24 hours
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitorsLocked()
}

// GetErrorRate returns the error rate as a percentage
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRateLocked()
}

// GetPopularTargets returns the n most analysed URLs and domains.
func (s *Statistics) GetPopularTargets(n int) map[string]int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return topLocked(s.PopularTargets, n)
}

// GetStatistics returns a summary. Outside dev mode the per-path and
// per-target breakdowns are withheld.
func (s *Statistics) GetStatistics() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := map[string]interface{}{
		"uniqueVisitors24h": s.uniqueVisitorsLocked(),
		"totalRequests":     s.TotalRequests,
		"errorRate":         s.errorRateLocked(),
		"averageLoadTime":   s.AverageLoadTime,
	}
	if s.devMode {
		result["popularTargets"] = topLocked(s.PopularTargets, 5)
		result["pathRequests"] = topLocked(s.PathRequests, 10)
	}
	return result
}

// Save persists the statistics to disk.
func (s *Statistics) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = s.now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("could not create statistics dir: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("could not write statistics file: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		return fmt.Errorf("could not rename statistics file: %w", err)
	}
	return nil
}

// Load reads the statistics from disk. A missing file is not an error.
func (s *Statistics) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PathRequests == nil {
		s.PathRequests = make(map[string]int)
	}
	if s.PopularTargets == nil {
		s.PopularTargets = make(map[string]int)
	}
	return nil
}
