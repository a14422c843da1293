// Package sonos talks to Sonos ZonePlayers over UPnP.
//
// It covers the narrow slice of the protocol the audio controller needs:
//
//   - SSDP M-SEARCH to find any player on the local network
//   - ZoneGroupTopology to expand one player into the full household
//   - RenderingControl for master volume
//   - AVTransport for play, pause, stop, track skip and TV input
//
// The wire work is done by github.com/huin/goupnp: its ssdp package sends
// the search, the generated av1 clients carry the standard actions, and its
// soap client carries the Sonos-only GetZoneGroupState. Service clients are
// bound straight to the players' fixed control URLs (port 1400 by default).
// Callers only ever see the device.Speaker interface.
//
// Usage:
//
//	client := sonos.NewClient(sonos.Config{Port: 1400})
//	topology, err := client.DiscoverByProbe(ctx, "192.168.1.195")
//	speaker := client.Speaker("192.168.1.195")
//	vol, err := speaker.Volume(ctx)
package sonos
