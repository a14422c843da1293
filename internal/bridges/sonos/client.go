package sonos

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// Default connection settings.
const (
	// DefaultPort is the ZonePlayer UPnP control port.
	DefaultPort = 1400

	// defaultCallTimeout backstops calls whose context has no deadline.
	defaultCallTimeout = 10 * time.Second
)

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Searcher sends an HTTP-over-UDP request and collects the answers until
// the request's context ends. *httpu.HTTPUClient satisfies it.
type Searcher interface {
	DoWithContext(req *http.Request, numSends int) ([]*http.Response, error)
}

// Config holds bridge settings.
type Config struct {
	// Port is the control port used when a host carries none.
	Port int

	// Searcher replaces the multicast SSDP client. Tests inject canned
	// answers through it.
	Searcher Searcher
}

// Client issues UPnP calls to players. It is safe for concurrent use and
// holds no per-player state.
type Client struct {
	port     int
	searcher Searcher
	logger   Logger
}

// NewClient creates a Client, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	c := &Client{
		port:     cfg.Port,
		searcher: cfg.Searcher,
		logger:   noopLogger{},
	}
	if c.port == 0 {
		c.port = DefaultPort
	}
	return c
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	c.logger = l
}

// Speaker returns a fresh handle for host. No network traffic happens
// until a method is called.
func (c *Client) Speaker(host string) *Speaker {
	return &Speaker{host: host, client: c}
}

// Factory adapts Speaker to device.SpeakerFactory.
func (c *Client) Factory() device.SpeakerFactory {
	return func(host string) device.Speaker {
		return c.Speaker(host)
	}
}

// baseURL returns http://host:port, keeping an explicit port in host.
func (c *Client) baseURL(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return "http://" + host
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.port))
}

// endpoint resolves path against the player's base URL.
func (c *Client) endpoint(host, path string) (*url.URL, error) {
	u, err := url.Parse(c.baseURL(host) + path)
	if err != nil {
		return nil, fmt.Errorf("player url for %q: %w", host, err)
	}
	return u, nil
}

// CanonicalHost reduces host:port to host when port is the client's
// control port. Discovered devices are stored in this form, so callers
// use it to match user-supplied hosts against the registry.
func (c *Client) CanonicalHost(hostport string) string {
	h, p, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	if p == strconv.Itoa(c.port) {
		return h
	}
	return hostport
}

// withCallTimeout bounds ctx by defaultCallTimeout unless it already
// carries a deadline.
func withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultCallTimeout)
}
