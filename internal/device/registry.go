package device

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds the current speaker topology.
//
// Devices keep discovery order. Reads return copies; the only in-place
// mutation is the cached last-known volume.
type Registry struct {
	mu       sync.RWMutex
	topology Topology
	byHost   map[string]int
	byUUID   map[string]int

	readTimeout time.Duration
	logger      Logger
}

// NewRegistry creates a registry populated from t.
func NewRegistry(t Topology) *Registry {
	r := &Registry{logger: noopLogger{}}
	r.Replace(t)
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// SetReadTimeout bounds each live volume read in Snapshot. Zero means
// reads are bounded only by the caller's context.
func (r *Registry) SetReadTimeout(d time.Duration) {
	r.mu.Lock()
	r.readTimeout = d
	r.mu.Unlock()
}

// Replace swaps in a new topology wholesale.
func (r *Registry) Replace(t Topology) {
	devices := slices.Clone(t.Devices)
	byHost := make(map[string]int, len(devices))
	byUUID := make(map[string]int, len(devices))
	for i, d := range devices {
		byHost[d.Host] = i
		if d.UUID != "" {
			byUUID[d.UUID] = i
		}
	}
	t.Devices = devices

	r.mu.Lock()
	r.topology = t
	r.byHost = byHost
	r.byUUID = byUUID
	logger := r.logger
	r.mu.Unlock()

	logger.Info("device registry replaced", "count", len(devices), "source", t.Source)
}

// Topology returns a copy of the current topology.
func (r *Registry) Topology() Topology {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := r.topology
	t.Devices = slices.Clone(t.Devices)
	return t
}

// Devices returns every device in discovery order.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.topology.Devices)
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topology.Devices)
}

// DeviceByUUID returns the device with the given UUID, or ErrDeviceNotFound.
func (r *Registry) DeviceByUUID(uuid string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byUUID[uuid]
	if !ok {
		return Device{}, fmt.Errorf("%w: uuid %q", ErrDeviceNotFound, uuid)
	}
	return r.topology.Devices[i], nil
}

// DeviceByHost returns the device registered at host.
func (r *Registry) DeviceByHost(host string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byHost[host]
	if !ok {
		return Device{}, false
	}
	return r.topology.Devices[i], true
}

// Groups returns devices grouped by GroupName in first-seen order.
func (r *Registry) Groups() []Group {
	return groupDevices(r.Devices())
}

// UpdateVolume records v as the last known volume of the device at host.
// Unknown hosts are ignored.
func (r *Registry) UpdateVolume(host string, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byHost[host]; ok {
		r.topology.Devices[i].Volume = v
	}
}

// Snapshot reads every device's volume concurrently, refreshes the cached
// values and returns the devices with the aggregate group volume.
//
// Returns:
//   - []Device: devices in discovery order; failed reads keep their cached volume
//   - int: round(mean(volumes)) over all devices, or 0 when empty
//   - error: ErrVolumeRead joined per failed device, or nil
func (r *Registry) Snapshot(ctx context.Context) ([]Device, int, error) {
	r.mu.RLock()
	timeout := r.readTimeout
	logger := r.logger
	r.mu.RUnlock()

	devices := r.Devices()
	errs := make([]error, len(devices))

	var g errgroup.Group
	for i := range devices {
		g.Go(func() error {
			v, err := readVolume(ctx, devices[i], timeout)
			if err != nil {
				errs[i] = err
				return nil
			}
			devices[i].Volume = v
			return nil
		})
	}
	g.Wait() //nolint:errcheck // Goroutines report through errs

	volumes := make([]int, 0, len(devices))
	for i, d := range devices {
		if errs[i] != nil {
			logger.Warn("volume read failed", "host", d.Host, "error", errs[i])
			continue
		}
		r.UpdateVolume(d.Host, d.Volume)
		volumes = append(volumes, d.Volume)
	}

	if err := errors.Join(errs...); err != nil {
		return devices, 0, err
	}
	return devices, AggregateVolume(volumes), nil
}

// GroupVolume returns the live aggregate volume.
func (r *Registry) GroupVolume(ctx context.Context) (int, error) {
	_, v, err := r.Snapshot(ctx)
	return v, err
}

func readVolume(ctx context.Context, d Device, timeout time.Duration) (int, error) {
	if d.Speaker == nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrVolumeRead, d.Host, ErrNoSpeaker)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	v, err := d.Speaker.Volume(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrVolumeRead, d.Host, err)
	}
	return v, nil
}

// roundHalfUp rounds half away from zero; for volumes that is half-up.
func roundHalfUp(x float64) float64 {
	return math.Round(x)
}
