// Package mqtt broadcasts marker events to an MQTT broker for remote dashboards.
package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/nightplan/core/events"
	coremon "github.com/kilianp07/nightplan/core/monitoring"
	"github.com/kilianp07/nightplan/infra/logger"
	"github.com/kilianp07/nightplan/internal/eventbus"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Bridge publishes marker events as JSON on <prefix>/<schedule>/<op>.
type Bridge struct {
	cli     pahoClient
	prefix  string
	qos     byte
	retain  bool
	retries int
	backoff time.Duration
	log     logger.Logger
	monitor coremon.Monitor
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithMonitor reports publish failures to m.
func WithMonitor(m coremon.Monitor) Option {
	return func(b *Bridge) {
		if m != nil {
			b.monitor = m
		}
	}
}

// NewBridge connects to the broker described by cfg.
func NewBridge(cfg Config, opts ...Option) (*Bridge, error) {
	cfg.SetDefaults()
	if cfg.ClientID == "" {
		cfg.ClientID = "nightplan-" + uuid.NewString()
	}
	copts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_bridge")
	b := &Bridge{
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		retries: cfg.MaxRetries,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:     log,
		monitor: coremon.NopMonitor{},
	}
	for _, opt := range opts {
		opt(b)
	}
	copts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	copts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	copts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(copts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	b.cli = c
	return b, nil
}

// NewClientOptions builds paho client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// Topic returns the topic an event is published on. Wildcard and separator
// characters in the schedule name are replaced.
func (b *Bridge) Topic(ev events.MarkerEvent) string {
	name := ev.Schedule
	if name == "" {
		name = "_"
	}
	name = strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(name)
	return b.prefix + "/" + name + "/" + string(ev.Op)
}

// Publish sends one event, retrying with exponential backoff.
func (b *Bridge) Publish(ev events.MarkerEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	topic := b.Topic(ev)
	var publishErr error
	for attempt := 0; attempt <= b.retries; attempt++ {
		token := b.cli.Publish(topic, b.qos, b.retain, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			b.log.Debugf("published %s %s", topic, ev.ID)
			return nil
		}
		b.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < b.retries {
			time.Sleep(b.backoff * time.Duration(1<<attempt))
		}
	}
	b.monitor.CaptureException(publishErr, map[string]string{
		"module": "mqtt",
		"topic":  topic,
		"source": ev.Source,
	})
	return publishErr
}

// Run forwards events from bus until ctx is canceled or the bus closes. The returned
// channel is closed when forwarding has stopped.
func (b *Bridge) Run(ctx context.Context, bus *eventbus.TypedBus[events.MarkerEvent]) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				_ = b.Publish(ev)
			}
		}
	}()
	return done
}

// Disconnect gracefully closes the MQTT connection.
func (b *Bridge) Disconnect() {
	if b.cli != nil && b.cli.IsConnected() {
		b.cli.Disconnect(250)
	}
}
