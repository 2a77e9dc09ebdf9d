// Package infra groups the adapters that connect the validation engine to the
// outside world: zerolog logging, Prometheus and InfluxDB sinks, Sentry fault
// reporting and the MQTT marker bridge. They implement interfaces declared under
// core and are wired together by app.Session.
package infra
