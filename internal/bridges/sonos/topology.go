package sonos

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"time"

	"github.com/huin/goupnp/soap"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

type zoneGroupState struct {
	Groups []zoneGroup `xml:"ZoneGroups>ZoneGroup"`

	// Older firmware returns <ZoneGroups> as the root element.
	Legacy []zoneGroup `xml:"ZoneGroup"`
}

type zoneGroup struct {
	Coordinator string       `xml:"Coordinator,attr"`
	ID          string       `xml:"ID,attr"`
	Members     []zoneMember `xml:"ZoneGroupMember"`
}

type zoneMember struct {
	UUID      string `xml:"UUID,attr"`
	Location  string `xml:"Location,attr"`
	ZoneName  string `xml:"ZoneName,attr"`
	Invisible string `xml:"Invisible,attr"`
}

// DiscoverByProbe asks host for the household's zone group state and
// returns every visible player. Devices are ordered by group, then by
// member order within the group, as the player reports them.
func (c *Client) DiscoverByProbe(ctx context.Context, host string) (device.Topology, error) {
	doc, err := c.zoneGroupState(ctx, host)
	if err != nil {
		return device.Topology{}, err
	}
	devices, err := c.parseZoneGroupState(doc)
	if err != nil {
		return device.Topology{}, err
	}
	return device.Topology{Devices: devices, DiscoveredAt: time.Now()}, nil
}

// zoneGroupState fetches the escaped ZoneGroupState document from host.
func (c *Client) zoneGroupState(ctx context.Context, host string) (string, error) {
	u, err := c.endpoint(host, zoneGroupTopology.control)
	if err != nil {
		return "", err
	}
	ctx, cancel := withCallTimeout(ctx)
	defer cancel()

	var out struct {
		ZoneGroupState string
	}
	err = soap.NewSOAPClient(*u).PerformActionCtx(ctx, zoneGroupTopology.urn, "GetZoneGroupState", &struct{}{}, &out)
	if err != nil {
		return "", callError(host, "GetZoneGroupState", err)
	}
	return out.ZoneGroupState, nil
}

// parseZoneGroupState decodes the unescaped ZoneGroupState document.
func (c *Client) parseZoneGroupState(doc string) ([]device.Device, error) {
	var state zoneGroupState
	if err := xml.Unmarshal([]byte(doc), &state); err != nil {
		return nil, fmt.Errorf("%w: zone group state: %w", ErrBadResponse, err)
	}
	groups := state.Groups
	if len(groups) == 0 {
		groups = state.Legacy
	}

	var devices []device.Device
	for _, g := range groups {
		groupName := ""
		for _, m := range g.Members {
			if m.UUID == g.Coordinator {
				groupName = m.ZoneName
				break
			}
		}

		for _, m := range g.Members {
			// Invisible members are bonded surrounds and subs.
			if m.Invisible == "1" {
				continue
			}
			host, err := c.hostFromLocation(m.Location)
			if err != nil {
				c.logger.Warn("skipping zone member with bad location",
					"uuid", m.UUID, "location", m.Location, "error", err)
				continue
			}
			devices = append(devices, device.Device{
				UUID:      m.UUID,
				Host:      host,
				Name:      m.ZoneName,
				GroupName: groupName,
				Speaker:   c.Speaker(host),
			})
		}
	}
	return devices, nil
}

func (c *Client) hostFromLocation(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("location %q has no host", location)
	}
	return c.CanonicalHost(u.Host), nil
}
