package control

import (
	"strings"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// Resolver maps a request's host parameter to a target set.
type Resolver struct {
	registry  *device.Registry
	factory   device.SpeakerFactory
	canonical func(string) string
}

// NewResolver creates a resolver over registry that builds handles with factory.
func NewResolver(registry *device.Registry, factory device.SpeakerFactory) *Resolver {
	return &Resolver{registry: registry, factory: factory}
}

// SetHostNormalizer installs fn to rewrite host parameters into the form
// the registry stores, such as "10.0.0.2:1400" to "10.0.0.2". Lookups,
// speaker handles and volume history all use the rewritten host.
func (r *Resolver) SetHostNormalizer(fn func(string) string) {
	r.canonical = fn
}

// Resolve returns the devices a command applies to.
//
// A non-empty host always yields exactly one device with a freshly built
// handle, whether or not the host is registered; registry metadata is
// copied in when it is. An empty or blank host yields every registered
// device in registry order.
func (r *Resolver) Resolve(host string) []device.Device {
	host = r.normalize(host)
	if host == "" {
		return r.registry.Devices()
	}

	d, ok := r.registry.DeviceByHost(host)
	if !ok {
		d = device.Device{Host: host}
	}
	d.Speaker = r.factory(host)
	return []device.Device{d}
}

func (r *Resolver) normalize(host string) string {
	host = strings.TrimSpace(host)
	if host == "" || r.canonical == nil {
		return host
	}
	return r.canonical(host)
}
