package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// Logger defines the logging interface used by the Controller.
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

// Discoverer finds the current speaker topology.
type Discoverer interface {
	Discover(ctx context.Context) (device.Topology, error)
}

// Options tune fan-out behaviour.
type Options struct {
	// CommandTimeout bounds each device call. Zero leaves calls bounded
	// only by the request context.
	CommandTimeout time.Duration

	// MaxConcurrency caps concurrent device calls per fan-out. Zero is unlimited.
	MaxConcurrency int
}

// Controller executes commands against resolved target sets.
type Controller struct {
	registry *device.Registry
	resolver *Resolver
	history  *History
	opts     Options

	mu         sync.RWMutex
	discoverer Discoverer
	observers  []Observer
	logger     Logger
	now        func() time.Time
}

// New creates a Controller. The history is owned by the caller so tests
// and startup seeding can inspect it.
func New(registry *device.Registry, resolver *Resolver, history *History, opts Options) *Controller {
	return &Controller{
		registry: registry,
		resolver: resolver,
		history:  history,
		opts:     opts,
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

// SetDiscoverer enables Rediscover.
func (c *Controller) SetDiscoverer(d Discoverer) {
	c.mu.Lock()
	c.discoverer = d
	c.mu.Unlock()
}

// AddObserver registers an observer for command events.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

func (c *Controller) log() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// deviceFunc performs one action on one device and fills in the outcome.
type deviceFunc func(ctx context.Context, d device.Device, o *Outcome)

// run fans fn out over targets and returns outcomes in target order.
func (c *Controller) run(ctx context.Context, action Action, targets []device.Device, fn deviceFunc) []Outcome {
	outcomes := make([]Outcome, len(targets))

	var g errgroup.Group
	if c.opts.MaxConcurrency > 0 {
		g.SetLimit(c.opts.MaxConcurrency)
	}
	for i, d := range targets {
		g.Go(func() error {
			o := &outcomes[i]
			o.describe(d, action)
			if d.Speaker == nil {
				o.fail(fmt.Errorf("%w: %w", ErrTransport, device.ErrNoSpeaker))
				return nil
			}
			dctx, cancel := c.deviceContext(ctx)
			defer cancel()
			fn(dctx, d, o)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // Per-device errors live in outcomes

	return outcomes
}

func (c *Controller) deviceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.CommandTimeout > 0 {
		return context.WithTimeout(ctx, c.opts.CommandTimeout)
	}
	return context.WithCancel(ctx)
}

// dispatch resolves host, runs fn over the target set, notifies observers
// and joins transport failures.
func (c *Controller) dispatch(ctx context.Context, action Action, host string, fn deviceFunc) (Result, error) {
	targets := c.resolver.Resolve(host)
	res := Result{Action: action, Outcomes: c.run(ctx, action, targets, fn)}

	var errs []error
	for _, o := range res.Outcomes {
		switch o.Status {
		case StatusFailed:
			c.log().Warn("device command failed", "action", action, "host", o.Host, "error", o.err)
			errs = append(errs, fmt.Errorf("%s: %w", o.Host, o.err))
		case StatusRejected:
			c.log().Info("volume rejected", "action", action, "host", o.Host, "error", o.Error)
		}
	}

	c.notify(ctx, res)

	if err := errors.Join(errs...); err != nil {
		return res, err
	}
	return res, nil
}

func (c *Controller) notify(ctx context.Context, res Result) {
	c.mu.RLock()
	observers := c.observers
	c.mu.RUnlock()
	if len(observers) == 0 {
		return
	}

	ev := Event{
		Result:    res,
		Source:    SourceFromContext(ctx),
		RequestID: RequestIDFromContext(ctx),
		Timestamp: c.now(),
	}
	// Observers outlive a cancelled request.
	octx := context.WithoutCancel(ctx)
	for _, o := range observers {
		o.Observe(octx, ev)
	}
}

// transportErr wraps a speaker failure so errors.Is(err, ErrTransport) holds.
func transportErr(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// ListDevices reads every speaker live and returns them with the group volume.
func (c *Controller) ListDevices(ctx context.Context) (DeviceList, error) {
	devices, volume, err := c.registry.Snapshot(ctx)
	if err != nil {
		return DeviceList{}, transportErr(err)
	}

	c.mu.RLock()
	observers := c.observers
	c.mu.RUnlock()
	for _, o := range observers {
		if gv, ok := o.(GroupVolumeObserver); ok {
			gv.ObserveGroupVolume(context.WithoutCancel(ctx), volume, len(devices))
		}
	}

	return DeviceList{Devices: devices, Volume: volume}, nil
}

// DeviceByUUID returns the registered device with a live volume read.
// Unknown UUIDs return device.ErrDeviceNotFound.
func (c *Controller) DeviceByUUID(ctx context.Context, uuid string) (device.Device, error) {
	d, err := c.registry.DeviceByUUID(uuid)
	if err != nil {
		return device.Device{}, err
	}
	if d.Speaker == nil {
		return d, transportErr(device.ErrNoSpeaker)
	}

	dctx, cancel := c.deviceContext(ctx)
	defer cancel()
	v, err := d.Speaker.Volume(dctx)
	if err != nil {
		return d, transportErr(err)
	}
	d.Volume = v
	c.registry.UpdateVolume(d.Host, v)
	return d, nil
}

// Groups returns the registered devices grouped by GroupName.
func (c *Controller) Groups() []device.Group {
	return c.registry.Groups()
}

// Rediscover runs discovery again and replaces the registry wholesale.
// On failure the current registry is kept.
func (c *Controller) Rediscover(ctx context.Context) (device.Topology, error) {
	c.mu.RLock()
	d := c.discoverer
	c.mu.RUnlock()
	if d == nil {
		return device.Topology{}, ErrNoDiscoverer
	}

	t, err := d.Discover(ctx)
	if err != nil {
		return device.Topology{}, err
	}
	c.registry.Replace(t)
	return t, nil
}

// SeedHistory records every registered speaker's live volume as its
// snapshot so undo and unmute work from the first request. Speakers that
// fail to answer are skipped and reported in the joined error.
func (c *Controller) SeedHistory(ctx context.Context) error {
	outcomes := c.run(ctx, ActionSeed, c.registry.Devices(), func(ctx context.Context, d device.Device, o *Outcome) {
		v, err := d.Speaker.Volume(ctx)
		if err != nil {
			o.fail(transportErr(err))
			return
		}
		c.history.RecordBefore(d.Host, v)
		c.registry.UpdateVolume(d.Host, v)
		o.Status = StatusApplied
		o.Volume = intPtr(v)
	})

	var errs []error
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", o.Host, o.err))
		}
	}
	c.log().Info("volume history seeded", "hosts", c.history.Len(), "failed", len(errs))
	return errors.Join(errs...)
}
