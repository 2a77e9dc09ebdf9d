// Package monitoring defines the fault reporter injected into the listener registry.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

// Capture is a single recorded report.
type Capture struct {
	Err  error
	Tags map[string]string
}

// MemoryMonitor keeps reports in memory. The CLI uses it to summarise faults.
type MemoryMonitor struct {
	Captures []Capture
}

func (m *MemoryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	cp := make(map[string]string, len(tags))
	for k, v := range tags {
		cp[k] = v
	}
	m.Captures = append(m.Captures, Capture{Err: err, Tags: cp})
}

func (m *MemoryMonitor) Flush(time.Duration) {}

// Multi fans reports out to several monitors.
type Multi []Monitor

func (ms Multi) CaptureException(err error, tags map[string]string) {
	for _, m := range ms {
		m.CaptureException(err, tags)
	}
}

func (ms Multi) Flush(d time.Duration) {
	for _, m := range ms {
		m.Flush(d)
	}
}
