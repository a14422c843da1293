package commandbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-audio/internal/control"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/mqtt"
)

// Source tags commands that arrived over MQTT.
const Source = "mqtt"

// defaultCommandTimeout bounds one MQTT-triggered fan-out.
const defaultCommandTimeout = 30 * time.Second

// Bus is the MQTT client surface the bridge uses. *mqtt.Client satisfies it.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Executor runs a named command. *control.Controller satisfies it.
type Executor interface {
	Execute(ctx context.Context, cmd control.Command) (control.Result, error)
}

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configure the bridge.
type Options struct {
	QoS            byte
	CommandTimeout time.Duration
	Version        string

	// DeviceCount reports the registry size for health messages.
	DeviceCount func() int
}

// Bridge subscribes to command topics and publishes state and health.
type Bridge struct {
	bus     Bus
	exec    Executor
	opts    Options
	started time.Time
	logger  Logger

	// ctx is the Start context; commands are cancelled with it.
	ctx context.Context
}

var _ control.Observer = (*Bridge)(nil)

// New creates a Bridge. Call Start to subscribe.
func New(bus Bus, exec Executor, opts Options) *Bridge {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	return &Bridge{
		bus:     bus,
		exec:    exec,
		opts:    opts,
		started: time.Now(),
		logger:  noopLogger{},
		ctx:     context.Background(),
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	b.logger = l
}

// Start subscribes to every command topic and publishes online health.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx = ctx
	if err := b.bus.Subscribe(mqtt.Topics{}.AllAudioCommands(), b.opts.QoS, b.handleMessage); err != nil {
		return fmt.Errorf("subscribing to audio commands: %w", err)
	}
	if err := b.PublishHealth(HealthOnline, ""); err != nil {
		b.logger.Warn("publishing initial health", "error", err)
	}
	b.logger.Info("mqtt command bridge started", "topic", mqtt.Topics{}.AllAudioCommands())
	return nil
}

// Stop publishes offline health. The bus itself is closed by its owner.
func (b *Bridge) Stop() {
	if err := b.PublishHealth(HealthOffline, "shutdown"); err != nil {
		b.logger.Warn("publishing offline health", "error", err)
	}
}

// handleMessage runs one command. Transport failures are logged here and
// reported through state; only malformed messages return an error.
func (b *Bridge) handleMessage(topic string, payload []byte) error {
	action, ok := mqtt.Topics{}.CommandAction(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}

	var msg commandMessage
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(b.ctx, b.opts.CommandTimeout)
	defer cancel()
	ctx = control.WithSource(ctx, Source)
	ctx = control.WithRequestID(ctx, msg.ID)

	cmd := control.Command{Action: control.Action(action), Host: msg.Host, Value: msg.Value}
	res, err := b.exec.Execute(ctx, cmd)
	switch {
	case errors.Is(err, control.ErrUnknownAction):
		return err
	case err != nil:
		b.logger.Warn("mqtt command failed",
			"action", action, "host", msg.Host, "id", msg.ID,
			"failed", len(res.Failed()), "error", err)
	default:
		b.logger.Info("mqtt command applied",
			"action", action, "host", msg.Host, "id", msg.ID, "outcomes", len(res.Outcomes))
	}
	return nil
}

// Observe publishes retained state for every applied outcome.
func (b *Bridge) Observe(_ context.Context, ev control.Event) {
	if !b.bus.IsConnected() {
		return
	}
	for _, o := range ev.Outcomes {
		if o.Status != control.StatusApplied {
			continue
		}
		msg := StateMessage{
			Host:      o.Host,
			UUID:      o.UUID,
			Name:      o.Name,
			Action:    string(o.Action),
			Volume:    o.Volume,
			Previous:  o.Previous,
			Source:    ev.Source,
			RequestID: ev.RequestID,
			Timestamp: ev.Timestamp,
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			b.logger.Error("encoding state message", "host", o.Host, "error", err)
			continue
		}
		if err := b.bus.Publish(mqtt.Topics{}.AudioState(o.Host), payload, b.opts.QoS, true); err != nil {
			b.logger.Warn("publishing state", "host", o.Host, "error", err)
		}
	}
}

// PublishHealth publishes a retained health message.
func (b *Bridge) PublishHealth(status, reason string) error {
	msg := HealthMessage{
		Status:        status,
		Version:       b.opts.Version,
		UptimeSeconds: int64(time.Since(b.started).Seconds()),
		Reason:        reason,
		Timestamp:     time.Now().UTC(),
	}
	if b.opts.DeviceCount != nil {
		msg.Devices = b.opts.DeviceCount()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding health message: %w", err)
	}
	return b.bus.Publish(mqtt.Topics{}.AudioHealth(), payload, b.opts.QoS, true)
}
