package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/nightplan/core/events"
	coremon "github.com/kilianp07/nightplan/core/monitoring"
	"github.com/kilianp07/nightplan/internal/eventbus"
)

// generateCert writes a self-signed certificate that doubles as its own CA.
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	for path, data := range map[string][]byte{certFile: certPEM, keyFile: keyPEM, caFile: certPEM} {
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return
}

func useMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 || tlsCfg.RootCAs == nil {
		t.Fatalf("tls config incomplete")
	}
	if _, err := (Config{UseTLS: true}).LoadTLSConfig(); err == nil {
		t.Fatalf("expected error for missing files")
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.TopicPrefix != "nightplan/markers" || c.MaxRetries != 3 || c.BackoffMS != 100 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("disabled bridge must validate: %v", err)
	}
	c.Enabled = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected missing broker error")
	}
	c.Broker = "tcp://localhost:1883"
	c.QoS = 3
	if err := c.Validate(); err == nil {
		t.Fatalf("expected qos error")
	}
}

func TestNewClientOptionsAuthAndWill(t *testing.T) {
	opts, err := NewClientOptions(Config{
		Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p",
		LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1,
	})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}
	if !opts.WillEnabled || opts.WillTopic != "lwt" || string(opts.WillPayload) != "bye" {
		t.Fatalf("will options incorrect")
	}
}

func TestBridgePublishesJSON(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	b, err := NewBridge(Config{Broker: "tcp://localhost:1883", QoS: 1, Retain: true})
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	if mc.opts.ClientID == "" {
		t.Fatalf("client id not generated")
	}
	ev := events.MarkerEvent{Op: events.MarkerAdded, ID: "m1", Schedule: "2025/01/02", Source: "Setup", Severity: "Error"}
	if err := b.Publish(ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	pubs := mc.pubs()
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pubs))
	}
	if pubs[0].topic != "nightplan/markers/2025_01_02/added" || pubs[0].qos != 1 || !pubs[0].retained {
		t.Fatalf("unexpected publish %+v", pubs[0])
	}
	var got events.MarkerEvent
	if err := json.Unmarshal(pubs[0].payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.ID != "m1" || got.Source != "Setup" {
		t.Fatalf("payload mismatch: %+v", got)
	}
	b.Disconnect()
}

func TestBridgeRetriesThenCaptures(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	useMock(t, mc)
	b, err := NewBridge(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	if err := b.Publish(events.MarkerEvent{Op: events.MarkerRemoved}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.pubs()) != 2 {
		t.Fatalf("expected a retry")
	}

	failing := &mockClient{publishErrs: []error{fmt.Errorf("a"), fmt.Errorf("b")}}
	useMock(t, failing)
	mon := &coremon.MemoryMonitor{}
	b, err = NewBridge(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1}, WithMonitor(mon))
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	if err := b.Publish(events.MarkerEvent{Op: events.MarkerAdded, Source: "Limits"}); err == nil {
		t.Fatalf("expected error")
	}
	if len(mon.Captures) != 1 || mon.Captures[0].Tags["module"] != "mqtt" || mon.Captures[0].Tags["source"] != "Limits" {
		t.Fatalf("failure not captured: %+v", mon.Captures)
	}
}

func TestBridgeRunForwardsBus(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	b, err := NewBridge(Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	bus := eventbus.NewTyped[events.MarkerEvent]()
	ctx, cancel := context.WithCancel(context.Background())
	done := b.Run(ctx, bus)
	bus.Publish(events.MarkerEvent{Op: events.MarkerAdded, Schedule: "n"})

	deadline := time.After(time.Second)
	for len(mc.pubs()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("event not forwarded")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestNewBridgeConnectError(t *testing.T) {
	mc := &mockClient{connectErr: fmt.Errorf("refused")}
	useMock(t, mc)
	if _, err := NewBridge(Config{Broker: "tcp://localhost:1883"}); err == nil {
		t.Fatalf("expected connect error")
	}
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements paho.Client for tests.
type mockClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
	connectErr  error
}

func (m *mockClient) pubs() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.published...)
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, _ := payload.([]byte)
	m.published = append(m.published, published{topic: topic, qos: qos, retained: retained, payload: p})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(string, byte, paho.MessageHandler) paho.Token { return &dummyToken{} }
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }
