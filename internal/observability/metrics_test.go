package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/tickets/:id", "GET", "NOT_FOUND")
	m.RecordMigration(3, 1, time.Second)
	m.RecordMigration(2, 0, 2*time.Second)

	snap := m.Snapshot()
	if got := snap.Requests["/api/tickets|GET|200"]; got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}
	if got := snap.AvgMillis["/api/tickets|GET|200"]; got != 20 {
		t.Fatalf("avg latency = %dms, want 20", got)
	}
	if got := snap.Errors["/api/tickets/:id|GET|NOT_FOUND"]; got != 1 {
		t.Fatalf("errors = %d, want 1", got)
	}
	if snap.Migration.Runs != 2 || snap.Migration.MigratedTickets != 5 || snap.Migration.Errors != 1 {
		t.Fatalf("migration = %+v", snap.Migration)
	}
	if snap.Migration.LastDuration != 2*time.Second {
		t.Fatalf("last duration = %v", snap.Migration.LastDuration)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordMigration(1, 0, time.Second)
	if snap := m.Snapshot(); len(snap.Requests) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
