package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/nightplan/core/events"
	coremetrics "github.com/kilianp07/nightplan/core/metrics"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
}

func (s *lineServer) handler(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.bodies = append(s.bodies, strings.TrimSpace(string(data)))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *lineServer) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies...)
}

func TestInfluxSink_RecordRuleRun(t *testing.T) {
	ls := &lineServer{}
	srv := httptest.NewServer(http.HandlerFunc(ls.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Now()
	run := coremetrics.RuleRun{
		Rule: "Limits", Scope: "variant", Schedule: "night", Target: "A",
		Outcome: "ok", Markers: 3, Duration: 1500 * time.Microsecond, Time: now,
	}
	if err := sink.RecordRuleRun(run); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("rule_run").
		AddTag("rule", "Limits").
		AddTag("scope", "variant").
		AddTag("schedule", "night").
		AddTag("outcome", "ok").
		AddField("target", "A").
		AddField("markers", 3).
		AddField("duration_us", int64(1500)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if got := ls.all(); len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordMarkerAndSnapshot(t *testing.T) {
	ls := &lineServer{}
	srv := httptest.NewServer(http.HandlerFunc(ls.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordMarker(events.MarkerEvent{
		Op: events.MarkerAdded, ID: "m1", Schedule: "night", Source: "Setup",
		Severity: "Error", Message: "Full setup required: first visit of the night.", Target: "GS-1 S1-2", Time: now,
	}); err != nil {
		t.Fatalf("record marker: %v", err)
	}
	if err := sink.RecordSnapshot(coremetrics.Snapshot{Schedule: "night", Variants: 2, Errors: 1, Notices: 4, Time: now}); err != nil {
		t.Fatalf("record snapshot: %v", err)
	}
	got := ls.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "marker_event,") || !strings.Contains(got[0], "source=Setup") {
		t.Errorf("marker line: %s", got[0])
	}
	if !strings.HasPrefix(got[1], "schedule_snapshot,schedule=night") || !strings.Contains(got[1], "variants=2i") || !strings.Contains(got[1], "notices=4i") {
		t.Errorf("snapshot line: %s", got[1])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
