//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/nightplan/core/events"
)

func startMosquitto(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestBridgeRoundTripMosquitto(t *testing.T) {
	broker := startMosquitto(t)

	received := make(chan events.MarkerEvent, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("probe"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("probe connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	tok := sub.Subscribe("nightplan/markers/#", 1, func(_ paho.Client, msg paho.Message) {
		var ev events.MarkerEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err == nil {
			received <- ev
		}
	})
	if tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	b, err := NewBridge(Config{Broker: broker, QoS: 1})
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	defer b.Disconnect()
	if err := b.Publish(events.MarkerEvent{Op: events.MarkerAdded, ID: "m1", Schedule: "night"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case ev := <-received:
		if ev.ID != "m1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no message received")
	}
}
