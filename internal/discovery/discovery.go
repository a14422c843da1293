package discovery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// Broadcaster discovers the topology via network-wide multicast.
type Broadcaster interface {
	DiscoverByBroadcast(ctx context.Context) (device.Topology, error)
}

// Prober asks a single host for the topology it belongs to.
type Prober interface {
	DiscoverByProbe(ctx context.Context, host string) (device.Topology, error)
}

// CandidateSource supplies extra hosts to probe after the fallback list.
type CandidateSource interface {
	Candidates(ctx context.Context) ([]string, error)
}

// Logger defines the logging interface used by the Discoverer.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Options configure discovery.
type Options struct {
	BroadcastTimeout time.Duration
	ProbeTimeout     time.Duration

	// FallbackHosts are probed in order when broadcast fails.
	FallbackHosts []string
}

// Discoverer runs the broadcast-then-fallback algorithm.
type Discoverer struct {
	broadcaster Broadcaster
	prober      Prober
	scanner     CandidateSource
	opts        Options
	logger      Logger
}

// New creates a Discoverer. Either strategy may be nil to disable it.
func New(b Broadcaster, p Prober, opts Options) *Discoverer {
	return &Discoverer{
		broadcaster: b,
		prober:      p,
		opts:        opts,
		logger:      noopLogger{},
	}
}

// SetScanner adds a candidate source consulted after every fallback host
// has failed.
func (d *Discoverer) SetScanner(s CandidateSource) {
	d.scanner = s
}

// SetLogger sets the logger for the discoverer.
func (d *Discoverer) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	d.logger = l
}

// Discover returns the first topology found.
//
// Returns:
//   - device.Topology: non-empty topology tagged with its Source
//   - error: ErrDiscoveryFailed wrapping the broadcast error and the last probe error
func (d *Discoverer) Discover(ctx context.Context) (device.Topology, error) {
	t, broadcastErr := d.broadcast(ctx)
	if broadcastErr == nil {
		t.Source = device.SourceBroadcast
		return d.found(t), nil
	}
	d.logger.Warn("broadcast discovery failed, probing fallback hosts",
		"error", broadcastErr, "candidates", len(d.opts.FallbackHosts))

	t, probeErr := d.probeAll(ctx, d.opts.FallbackHosts)
	if probeErr == nil {
		t.Source = device.SourceFallback
		return d.found(t), nil
	}

	if d.scanner != nil && ctx.Err() == nil {
		hosts, err := d.scanner.Candidates(ctx)
		switch {
		case err != nil:
			d.logger.Warn("candidate scan failed", "error", err)
			probeErr = errors.Join(probeErr, err)
		default:
			hosts = slices.DeleteFunc(hosts, func(h string) bool {
				return slices.Contains(d.opts.FallbackHosts, h)
			})
			d.logger.Info("probing scanned candidates", "candidates", len(hosts))
			t, err = d.probeAll(ctx, hosts)
			if err == nil {
				t.Source = device.SourceScan
				return d.found(t), nil
			}
			probeErr = err
		}
	}

	return device.Topology{}, fmt.Errorf("%w: broadcast: %w; fallback: %w", ErrDiscoveryFailed, broadcastErr, probeErr)
}

func (d *Discoverer) broadcast(ctx context.Context) (device.Topology, error) {
	if d.broadcaster == nil {
		return device.Topology{}, errors.New("broadcast disabled")
	}
	ctx, cancel := withTimeout(ctx, d.opts.BroadcastTimeout)
	defer cancel()

	t, err := d.broadcaster.DiscoverByBroadcast(ctx)
	if err != nil {
		return device.Topology{}, err
	}
	if len(t.Devices) == 0 {
		return device.Topology{}, ErrEmptyTopology
	}
	return t, nil
}

// probeAll probes hosts sequentially and stops at the first success.
func (d *Discoverer) probeAll(ctx context.Context, hosts []string) (device.Topology, error) {
	if d.prober == nil || len(hosts) == 0 {
		return device.Topology{}, errors.New("no fallback candidates")
	}

	var lastErr error
	for _, host := range hosts {
		if err := ctx.Err(); err != nil {
			return device.Topology{}, err
		}
		t, err := d.probe(ctx, host)
		if err == nil {
			d.logger.Info("fallback probe succeeded", "host", host)
			return t, nil
		}
		d.logger.Warn("fallback probe failed", "host", host, "error", err)
		lastErr = fmt.Errorf("%s: %w", host, err)
	}
	return device.Topology{}, lastErr
}

func (d *Discoverer) probe(ctx context.Context, host string) (device.Topology, error) {
	ctx, cancel := withTimeout(ctx, d.opts.ProbeTimeout)
	defer cancel()

	t, err := d.prober.DiscoverByProbe(ctx, host)
	if err != nil {
		return device.Topology{}, err
	}
	if len(t.Devices) == 0 {
		return device.Topology{}, ErrEmptyTopology
	}
	return t, nil
}

func (d *Discoverer) found(t device.Topology) device.Topology {
	if t.DiscoveredAt.IsZero() {
		t.DiscoveredAt = time.Now()
	}
	for _, dev := range t.Devices {
		d.logger.Info("speaker discovered",
			"name", dev.Name, "uuid", dev.UUID, "group", dev.GroupName, "host", dev.Host)
	}
	d.logger.Info("discovery complete", "source", t.Source, "count", len(t.Devices))
	return t
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
