package sonos

import (
	"errors"
	"fmt"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/dcps/av1"
	"github.com/huin/goupnp/soap"
)

// service identifies a UPnP service on the player.
type service struct {
	urn     string
	control string
}

var (
	renderingControl = service{
		urn:     av1.URN_RenderingControl_1,
		control: "/MediaRenderer/RenderingControl/Control",
	}
	avTransport = service{
		urn:     av1.URN_AVTransport_1,
		control: "/MediaRenderer/AVTransport/Control",
	}

	// ZoneGroupTopology is Sonos specific and has no generated client.
	zoneGroupTopology = service{
		urn:     "urn:schemas-upnp-org:service:ZoneGroupTopology:1",
		control: "/ZoneGroupTopology/Control",
	}
)

// Fixed action arguments.
const (
	instanceID    uint32 = 0
	masterChannel        = "Master"
	playSpeed            = "1"
)

// serviceClient binds a generated service client to the player's known
// control URL, skipping the device description round trip.
func (c *Client) serviceClient(host string, svc service) (goupnp.ServiceClient, error) {
	u, err := c.endpoint(host, svc.control)
	if err != nil {
		return goupnp.ServiceClient{}, err
	}
	return goupnp.ServiceClient{
		SOAPClient: soap.NewSOAPClient(*u),
		Location:   u,
	}, nil
}

func (c *Client) renderingControl(host string) (*av1.RenderingControl1, error) {
	sc, err := c.serviceClient(host, renderingControl)
	if err != nil {
		return nil, err
	}
	return &av1.RenderingControl1{ServiceClient: sc}, nil
}

func (c *Client) avTransport(host string) (*av1.AVTransport1, error) {
	sc, err := c.serviceClient(host, avTransport)
	if err != nil {
		return nil, err
	}
	return &av1.AVTransport1{ServiceClient: sc}, nil
}

// callError tags a failed action with the player and action names and maps
// SOAP faults onto ErrSOAPFault.
func callError(host, action string, err error) error {
	var fault *soap.SOAPFaultError
	if errors.As(err, &fault) {
		return fmt.Errorf("%w: %s %s: %v", ErrSOAPFault, host, action, err)
	}
	return fmt.Errorf("%s %s: %w", host, action, err)
}
