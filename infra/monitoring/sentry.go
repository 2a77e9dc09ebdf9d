// Package monitoring reports rule faults to Sentry.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/nightplan/config"
	coremon "github.com/kilianp07/nightplan/core/monitoring"
)

// NewSentryMonitor returns a Monitor backed by Sentry, or a NopMonitor when no DSN
// is configured.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	return newSentryMonitor(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
	})
}

// SentryMonitor captures exceptions on a dedicated hub so several sessions never
// share scope state.
type SentryMonitor struct {
	hub *sentry.Hub
}

func newSentryMonitor(opts sentry.ClientOptions) (*SentryMonitor, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &SentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (s *SentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

func (s *SentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
