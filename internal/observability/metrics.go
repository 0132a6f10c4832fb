package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	latencyTotal map[string]time.Duration
	migration    MigrationStats
}

// MigrationStats accumulates attachment sweep outcomes.
type MigrationStats struct {
	Runs            int64         `json:"runs"`
	MigratedTickets int64         `json:"migratedTickets"`
	Errors          int64         `json:"errors"`
	LastDuration    time.Duration `json:"lastDurationNs"`
	LastRunAt       time.Time     `json:"lastRunAt"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests  map[string]int64 `json:"requests"`
	Errors    map[string]int64 `json:"errors"`
	AvgMillis map[string]int64 `json:"avgLatencyMs"`
	Migration MigrationStats   `json:"migration"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latencyTotal: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordMigration adds one sweep run.
func (m *Metrics) RecordMigration(migratedTickets, errors int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.migration.Runs++
	m.migration.MigratedTickets += int64(migratedTickets)
	m.migration.Errors += int64(errors)
	m.migration.LastDuration = duration
	m.migration.LastRunAt = time.Now().UTC()
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	out := Snapshot{Requests: map[string]int64{}, Errors: map[string]int64{}, AvgMillis: map[string]int64{}}
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		out.Requests[k] = v
		if v > 0 {
			out.AvgMillis[k] = (m.latencyTotal[k] / time.Duration(v)).Milliseconds()
		}
	}
	for k, v := range m.errorCount {
		out.Errors[k] = v
	}
	out.Migration = m.migration
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
