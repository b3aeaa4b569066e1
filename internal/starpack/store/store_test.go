package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bdobrica/starpack/internal/starpack/store"
)

func newTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := store.New(context.Background(), path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	s, path := newTestStore(t)
	s.Close()

	again, err := store.New(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestRecordAndRecent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []store.Entry{
		{Timestamp: base, TraceID: "t_1", Command: "engine start", Result: store.ResultSuccess, Endpoint: "http://localhost:1976", Duration: 1500 * time.Millisecond},
		{Timestamp: base.Add(time.Minute), TraceID: "t_2", Command: "package", Target: "proj", Result: store.ResultError, ErrorKind: "upstream rejection", Error: "status 404"},
		{Timestamp: base.Add(2 * time.Minute), TraceID: "t_3", Command: "deployment list", Result: store.ResultSuccess},
	}
	for _, e := range entries {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].TraceID != "t_3" || got[1].TraceID != "t_2" {
		t.Errorf("order = %s, %s; want newest first", got[0].TraceID, got[1].TraceID)
	}
	if got[1].Target != "proj" || got[1].ErrorKind != "upstream rejection" || got[1].Error != "status 404" {
		t.Errorf("entry = %+v", got[1])
	}
	if got[0].Target != "" {
		t.Errorf("NULL target should read back empty, got %q", got[0].Target)
	}

	all, _ := s.Recent(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("default limit returned %d", len(all))
	}
	if all[2].Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v", all[2].Duration)
	}
}

func TestRecord_DefaultsTimestamp(t *testing.T) {
	s, _ := newTestStore(t)
	before := time.Now().Add(-time.Second)
	if err := s.Record(context.Background(), store.Entry{TraceID: "t", Command: "config view", Result: store.ResultSuccess}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, _ := s.Recent(context.Background(), 1)
	if len(got) != 1 || got[0].Timestamp.Before(before) {
		t.Errorf("timestamp = %v", got)
	}
}
