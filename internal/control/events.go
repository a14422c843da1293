package control

import (
	"context"
	"time"
)

// Event is delivered to observers after every fan-out.
type Event struct {
	Result
	Source    string    `json:"source"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Observer receives an Event after each command completes. Observers run
// synchronously on the request goroutine and must not block for long.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// GroupVolumeObserver is optionally implemented by observers interested in
// the aggregate computed by ListDevices.
type GroupVolumeObserver interface {
	ObserveGroupVolume(ctx context.Context, volume, devices int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

type sourceKey struct{}

// WithSource tags ctx with the origin of a command ("api", "mqtt", ...).
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFromContext returns the tag set by WithSource, or "".
func SourceFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sourceKey{}).(string)
	return s
}

type requestIDKey struct{}

// WithRequestID tags ctx with the id of the request that issued a command.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
