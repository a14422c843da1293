package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "graylogic-audio-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// recordingLogger captures warn/error lines from handlers.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (r *recordingLogger) Error(msg string, _ ...any) {
	r.mu.Lock()
	r.errs = append(r.errs, msg)
	r.mu.Unlock()
}

func (r *recordingLogger) Warn(msg string, _ ...any) {
	r.mu.Lock()
	r.warns = append(r.warns, msg)
	r.mu.Unlock()
}

func (r *recordingLogger) Info(string, ...any) {}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q", got)
	}
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL() with TLS = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "audio", Password: "secret"}

	opts := buildClientOptions(cfg)

	if opts.ClientID != "graylogic-audio-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "audio" || opts.Password != "secret" {
		t.Errorf("credentials not applied: %q/%q", opts.Username, opts.Password)
	}
	if !opts.WillEnabled || opts.WillTopic != "graylogic/system/status" || !opts.WillRetained {
		t.Errorf("LWT = enabled:%v topic:%q retained:%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	var will statusMessage
	if err := json.Unmarshal(opts.WillPayload, &will); err != nil {
		t.Fatalf("will payload not JSON: %v", err)
	}
	if will.Status != "offline" || will.Reason != "unexpected_disconnect" {
		t.Errorf("will = %+v", will)
	}
	if len(opts.Servers) != 1 || opts.Servers[0].Host != "127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
}

func TestDisconnectedClient(t *testing.T) {
	c := newClient(testConfig())
	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"publish empty topic", func() error { return c.Publish("", nil, 1, false) }, ErrInvalidTopic},
		{"publish bad qos", func() error { return c.Publish("a", nil, 3, false) }, ErrInvalidQoS},
		{"publish oversize", func() error { return c.Publish("a", make([]byte, maxPayloadSize+1), 1, false) }, ErrPublishFailed},
		{"publish disconnected", func() error { return c.Publish("a", []byte("{}"), 1, true) }, ErrNotConnected},
		{"subscribe nil handler", func() error { return c.Subscribe("a", 1, nil) }, ErrSubscribeFailed},
		{"subscribe disconnected", func() error { return c.Subscribe("a", 1, noop) }, ErrNotConnected},
		{"unsubscribe empty", func() error { return c.Unsubscribe("") }, ErrInvalidTopic},
		{"health", func() error { return c.HealthCheck(context.Background()) }, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if c.IsConnected() {
		t.Error("IsConnected() = true for unconnected client")
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	c := newClient(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestDispatch_RecoversAndLogs(t *testing.T) {
	c := newClient(testConfig())
	rec := &recordingLogger{}
	c.SetLogger(rec)

	c.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "t", nil)
	c.dispatch(func(string, []byte) error { return nil }, "t", nil)

	if len(rec.errs) != 1 {
		t.Errorf("errors logged = %d, want 1 (panic)", len(rec.errs))
	}
	if len(rec.warns) != 1 {
		t.Errorf("warnings logged = %d, want 1 (handler error)", len(rec.warns))
	}
}

func TestSetLogger_NilFallsBackToNoop(t *testing.T) {
	c := newClient(testConfig())
	c.SetLogger(nil)
	c.dispatch(func(string, []byte) error { return errors.New("x") }, "t", nil)
}

func TestStatusPayload(t *testing.T) {
	var msg statusMessage
	if err := json.Unmarshal(statusPayload("cid", "online", ""), &msg); err != nil {
		t.Fatalf("statusPayload not JSON: %v", err)
	}
	if msg.Status != "online" || msg.ClientID != "cid" || msg.Reason != "" || msg.Timestamp == "" {
		t.Errorf("status = %+v", msg)
	}
}

func TestClient_QoS(t *testing.T) {
	cfg := testConfig()
	cfg.QoS = 2
	if got := newClient(cfg).QoS(); got != 2 {
		t.Errorf("QoS() = %d, want 2", got)
	}
}
