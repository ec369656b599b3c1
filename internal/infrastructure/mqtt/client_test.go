package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-rules/internal/infrastructure/config"
)

// testConfig returns a configuration for a local Mosquitto at 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "graylogic-rules-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "graylogic-test",
	}
}

// offlineClient returns a client that never connected.
func offlineClient() *Client {
	return &Client{
		cfg:           testConfig(),
		topics:        Topics{Prefix: "graylogic-test"},
		subscriptions: make(map[string]subscription),
	}
}

// ─── Mock Dependencies ──────────────────────────────────────────────

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"command", Topics{Prefix: "home"}.EntityCommand("fan"), "home/entity/fan/command"},
		{"state", Topics{Prefix: "home"}.EntityState("fan"), "home/entity/fan/state"},
		{"status", Topics{Prefix: "home"}.Status(), "home/rules/status"},
		{"default prefix", Topics{}.EntityState("ac"), "graylogic/entity/ac/state"},
		{"trimmed prefix", Topics{Prefix: "/home/"}.EntityCommand("ac"), "home/entity/ac/command"},
		{"state of own topic", Topics{}.StateOf("home/livingroom/fan"), "home/livingroom/fan/state"},
		{"state of trailing slash", Topics{}.StateOf("home/fan/"), "home/fan/state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "rules", Password: "secret"}

	r := pahomqtt.NewOptionsReader(buildClientOptions(cfg))
	if servers := r.Servers(); len(servers) != 1 || servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers() = %v", servers)
	}
	if r.ClientID() != cfg.Broker.ClientID {
		t.Errorf("ClientID() = %q", r.ClientID())
	}
	if r.Username() != "rules" || r.Password() != "secret" {
		t.Errorf("credentials = %q/%q", r.Username(), r.Password())
	}
	if !r.AutoReconnect() || !r.CleanSession() {
		t.Error("expected auto-reconnect and clean session")
	}
	if r.TLSConfig() != nil {
		t.Error("TLS config set without TLS")
	}

	cfg.Broker.TLS = true
	r = pahomqtt.NewOptionsReader(buildClientOptions(cfg))
	if servers := r.Servers(); servers[0].Scheme != "ssl" {
		t.Errorf("TLS scheme = %q, want ssl", servers[0].Scheme)
	}
	if r.TLSConfig() == nil {
		t.Error("TLS config missing")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, "home/rules/status", "rules-1")

	r := pahomqtt.NewOptionsReader(opts)
	if r.WillTopic() != "home/rules/status" || !r.WillRetained() || r.WillQos() != 1 {
		t.Errorf("will = %q retained=%v qos=%d", r.WillTopic(), r.WillRetained(), r.WillQos())
	}

	var msg statusMessage
	if err := json.Unmarshal(r.WillPayload(), &msg); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if msg.Status != "offline" || msg.ClientID != "rules-1" || msg.Reason != "unexpected_disconnect" {
		t.Errorf("will payload = %+v", msg)
	}
}

func TestValidation(t *testing.T) {
	c := offlineClient()
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"publish empty topic", c.Publish("", nil, 1, false), ErrInvalidTopic},
		{"publish bad qos", c.Publish("a/b", nil, 3, false), ErrInvalidQoS},
		{"publish too large", c.Publish("a/b", make([]byte, maxPayloadSize+1), 1, false), ErrPublishFailed},
		{"publish offline", c.Publish("a/b", []byte("{}"), 1, false), ErrNotConnected},
		{"subscribe empty topic", c.Subscribe("", 1, noop), ErrInvalidTopic},
		{"subscribe bad qos", c.Subscribe("a/b", 3, noop), ErrInvalidQoS},
		{"subscribe nil handler", c.Subscribe("a/b", 1, nil), ErrSubscribeFailed},
		{"subscribe offline", c.Subscribe("a/b", 1, noop), ErrNotConnected},
		{"unsubscribe empty topic", c.Unsubscribe(""), ErrInvalidTopic},
		{"unsubscribe offline", c.Unsubscribe("a/b"), ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.wantErr) {
				t.Errorf("error = %v, want %v", tt.err, tt.wantErr)
			}
		})
	}

	if c.SubscriptionCount() != 0 || c.HasSubscription("a/b") {
		t.Error("failed subscribe left a tracked subscription")
	}
}

func TestHealthCheck_Offline(t *testing.T) {
	c := offlineClient()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) = %v, want context.Canceled", err)
	}
}

func TestClose_NeverConnected(t *testing.T) {
	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
	if err := offlineClient().Close(); err != nil {
		t.Errorf("offline Close() = %v", err)
	}
}

func TestDispatch(t *testing.T) {
	c := offlineClient()
	logger := &mockLogger{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "a/b", nil)
	c.dispatch(func(string, []byte) error { panic("boom") }, "a/b", nil)

	var got []byte
	c.dispatch(func(_ string, p []byte) error { got = p; return nil }, "a/b", []byte("ok"))

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) != 1 {
		t.Errorf("warns = %v, want 1", logger.warns)
	}
	if len(logger.errors) != 1 {
		t.Errorf("errors = %v, want 1 (recovered panic)", logger.errors)
	}
	if string(got) != "ok" {
		t.Errorf("payload = %q, want ok", got)
	}
}

func TestDispatch_NoLogger(t *testing.T) {
	c := offlineClient()
	// Must not panic without a logger.
	c.dispatch(func(string, []byte) error { panic("boom") }, "a/b", nil)
}

func TestCallbacks(t *testing.T) {
	c := offlineClient()

	var disconnected error
	c.SetOnDisconnect(func(err error) { disconnected = err })
	c.setConnected(true)

	c.handleDisconnect(errors.New("link down"))
	if disconnected == nil || disconnected.Error() != "link down" {
		t.Errorf("onDisconnect got %v", disconnected)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}
