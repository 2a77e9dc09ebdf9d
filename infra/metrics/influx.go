package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/nightplan/core/events"
	coremetrics "github.com/kilianp07/nightplan/core/metrics"
	"github.com/kilianp07/nightplan/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket receiving the points.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes rule runs, marker events and snapshots to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint without contacting it.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink when it is
// unhealthy, so a missing database never blocks validation.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordRuleRun writes one rule_run point.
func (s *InfluxSink) RecordRuleRun(run coremetrics.RuleRun) error {
	p := write.NewPointWithMeasurement("rule_run").
		AddTag("rule", run.Rule).
		AddTag("scope", run.Scope).
		AddTag("schedule", run.Schedule).
		AddTag("outcome", run.Outcome).
		AddField("target", run.Target).
		AddField("markers", run.Markers).
		AddField("duration_us", run.Duration.Microseconds()).
		SetTime(run.Time)
	return s.write(p)
}

// RecordMarker writes one marker_event point.
func (s *InfluxSink) RecordMarker(ev events.MarkerEvent) error {
	p := write.NewPointWithMeasurement("marker_event").
		AddTag("schedule", ev.Schedule).
		AddTag("source", ev.Source).
		AddTag("severity", ev.Severity).
		AddTag("op", string(ev.Op)).
		AddField("id", ev.ID).
		AddField("target", ev.Target).
		AddField("message", ev.Message).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordSnapshot writes one schedule_snapshot point.
func (s *InfluxSink) RecordSnapshot(snap coremetrics.Snapshot) error {
	p := write.NewPointWithMeasurement("schedule_snapshot").
		AddTag("schedule", snap.Schedule).
		AddField("variants", snap.Variants).
		AddField("allocs", snap.Allocs).
		AddField("errors", snap.Errors).
		AddField("warnings", snap.Warnings).
		AddField("infos", snap.Infos).
		AddField("notices", snap.Notices).
		SetTime(snap.Time)
	return s.write(p)
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}
