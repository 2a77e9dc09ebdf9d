package journal

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/nightplan/core/events"
	"github.com/kilianp07/nightplan/core/schedule"
	"github.com/kilianp07/nightplan/internal/eventbus"
)

var base = time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)

func sampleRecords() []Record {
	return []Record{
		{Op: events.MarkerAdded, ID: "a", Schedule: "n1", Source: "Setup", Severity: "Error", Time: base},
		{Op: events.MarkerAdded, ID: "b", Schedule: "n1", Source: "Limits", Severity: "Info", Time: base.Add(time.Minute)},
		{Op: events.MarkerRemoved, ID: "a", Schedule: "n1", Source: "Setup", Severity: "Error", Time: base.Add(2 * time.Minute)},
		{Op: events.MarkerAdded, ID: "c", Schedule: "n2", Source: "Limits", Severity: "Warning", Time: base.Add(3 * time.Minute)},
	}
}

func ids(recs []Record) string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID + ":" + string(r.Op)
	}
	return strings.Join(out, ",")
}

func TestQueryMatch(t *testing.T) {
	recs := sampleRecords()
	cases := []struct {
		name string
		q    Query
		want string
	}{
		{"all", Query{}, "a:added,b:added,a:removed,c:added"},
		{"window", Query{Start: base.Add(time.Minute), End: base.Add(2 * time.Minute)}, "b:added,a:removed"},
		{"schedule", Query{Schedule: "n2"}, "c:added"},
		{"source", Query{Source: "Setup"}, "a:added,a:removed"},
		{"op", Query{Op: events.MarkerRemoved}, "a:removed"},
		{"severity", Query{MinSeverity: schedule.SeverityWarning}, "a:added,a:removed,c:added"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []Record
			for _, r := range recs {
				if tc.q.Match(r) {
					got = append(got, r)
				}
			}
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewRotatingJSONLStore(filepath.Join(dir, "j", "markers.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "markers.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = jsonl.Close()
		_ = sqlite.Close()
	})
	return map[string]Store{"jsonl": jsonl, "sqlite": sqlite}
}

func TestStoresAppendQuery(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, r := range sampleRecords() {
				require.NoError(t, store.Append(ctx, r))
			}
			all, err := store.Query(ctx, Query{})
			require.NoError(t, err)
			assert.Equal(t, "a:added,b:added,a:removed,c:added", ids(all))

			sel, err := store.Query(ctx, Query{Source: "Limits", MinSeverity: schedule.SeverityWarning})
			require.NoError(t, err)
			assert.Equal(t, "c:added", ids(sel))

			win, err := store.Query(ctx, Query{Start: base.Add(30 * time.Second), Schedule: "n1"})
			require.NoError(t, err)
			assert.Equal(t, "b:added,a:removed", ids(win))
		})
	}
}

func TestRotatingJSONLStoreRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "markers.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	msg := strings.Repeat("x", 10*1024)
	for i := 0; i < 150; i++ {
		rec := Record{Op: events.MarkerAdded, ID: "r", Message: msg, Time: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, store.Append(context.Background(), rec))
	}
	files, _ := filepath.Glob(filepath.Join(dir, "markers*.jsonl"))
	if len(files) < 2 {
		t.Fatalf("expected rotated files, got %v", files)
	}
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 150)
	assert.True(t, out[0].Time.Equal(base))
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Path: filepath.Join(dir, "m.jsonl")}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	s, err := Open(cfg)
	require.NoError(t, err)
	_, ok := s.(*RotatingJSONLStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	s, err = Open(Config{Backend: "sqlite", Path: filepath.Join(dir, "m.db")})
	require.NoError(t, err)
	_, ok = s.(*SQLiteStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	_, err = Open(Config{Backend: "csv", Path: "x"})
	assert.Error(t, err)
	assert.Error(t, Config{Backend: "csv", Path: "x"}.Validate())
}

func TestFollowDrainsBus(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "f.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	bus := eventbus.NewTyped[events.MarkerEvent]()
	done := Follow(context.Background(), bus, store, nil)
	for _, r := range sampleRecords() {
		bus.Publish(r)
	}
	bus.Close()
	<-done

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 4)
}
