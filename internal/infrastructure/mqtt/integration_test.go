//go:build integration

package mqtt

import (
	"context"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Integration tests against a real broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_Connect(t *testing.T) {
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestIntegration_PublishRetainedIsDelivered(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "settingsd-int-pub"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := client.Topics().Setting("SavePCAP")
	if err := client.PublishRetained(topic, []byte(`{"value":false}`)); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}

	// A subscriber connecting after the publish still sees the retained value.
	var (
		mu       sync.Mutex
		received []byte
	)
	done := make(chan struct{})

	opts := pahomqtt.NewClientOptions().AddBroker("tcp://127.0.0.1:1883").SetClientID("settingsd-int-sub")
	observer := pahomqtt.NewClient(opts)
	if token := observer.Connect(); !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		t.Fatalf("observer connect failed: %v", token.Error())
	}
	defer observer.Disconnect(100)

	observer.Subscribe(topic, 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		mu.Lock()
		defer mu.Unlock()
		if received == nil {
			received = msg.Payload()
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("retained message not received")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(received) != `{"value":false}` {
		t.Errorf("payload = %s", received)
	}
}

func TestIntegration_Callbacks(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "settingsd-int-cb"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	client.SetOnConnect(func() {})
	client.SetOnDisconnect(func(error) {})

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}
