package sonos

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/huin/goupnp/httpu"
	"github.com/huin/goupnp/ssdp"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

const (
	// zonePlayerST is the search target every Sonos player answers.
	zonePlayerST = "urn:schemas-upnp-org:device:ZonePlayer:1"

	// searchMX is the max response delay players may use (seconds).
	searchMX = 1

	// searchSends repeats the M-SEARCH to ride out packet loss.
	searchSends = 2

	// defaultSearchWait bounds a search whose context has no deadline.
	defaultSearchWait = 3 * time.Second
)

// DiscoverByBroadcast sends an SSDP search, then expands the first player
// that answers into the full topology. It returns when ctx ends if no
// player answers.
func (c *Client) DiscoverByBroadcast(ctx context.Context) (device.Topology, error) {
	location, err := c.search(ctx)
	if err != nil {
		return device.Topology{}, err
	}
	host, err := c.hostFromLocation(location)
	if err != nil {
		return device.Topology{}, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	c.logger.Debug("ssdp search answered", "host", host, "location", location)
	return c.DiscoverByProbe(ctx, host)
}

// search returns the LOCATION of the first ZonePlayer that answers.
func (c *Client) search(ctx context.Context) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSearchWait)
		defer cancel()
	}

	searcher := c.searcher
	if searcher == nil {
		hc, err := httpu.NewHTTPUClient()
		if err != nil {
			return "", fmt.Errorf("opening search socket: %w", err)
		}
		defer hc.Close()
		searcher = hc
	}

	responses, err := ssdp.SSDPRawSearchCtx(ctx, searcher, zonePlayerST, searchMX, searchSends)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrNoResponse, ctx.Err())
		}
		return "", fmt.Errorf("ssdp search: %w", err)
	}

	location, ok := firstLocation(responses)
	if !ok {
		c.logger.Debug("ssdp search got no zone player", "responses", len(responses))
		return "", ErrNoResponse
	}
	return location, nil
}

// firstLocation returns the LOCATION of the first ZonePlayer answer.
func firstLocation(responses []*http.Response) (string, bool) {
	for _, resp := range responses {
		if resp.StatusCode != http.StatusOK || resp.Header.Get("ST") != zonePlayerST {
			continue
		}
		if location := resp.Header.Get("Location"); location != "" {
			return location, true
		}
	}
	return "", false
}
