// Package device provides the speaker Registry for Gray Logic Audio.
//
// The Registry is the process-wide catalogue of the speakers found by
// discovery. It is populated once at startup from a Topology and replaced
// wholesale whenever discovery runs again; there is no per-device add or
// remove.
//
// # Key Types
//
//   - Speaker: the single typed capability interface a transport implements
//     (volume read/write and transport commands)
//   - Device: identity (UUID, Host), display metadata and a Speaker handle
//   - Topology: the ordered result of one discovery attempt
//   - Group: devices sharing a GroupName
//
// # Identity
//
// UUID is stable across restarts and used only for lookup by identity.
// Host may change between discoveries and is the key used by target
// resolution and volume history.
//
// # Group Volume
//
// The aggregate volume is round(mean(live volumes)) over every registered
// speaker, computed on demand and never cached. Rounding is math.Round,
// so a mean of 50.5 reports 51 and 49.5 reports 50. An empty registry
// reports 0.
//
// # Usage
//
//	registry := device.NewRegistry(topology)
//	registry.SetLogger(log)
//	registry.SetReadTimeout(cfg.Transport.CommandTimeoutDuration())
//
//	devices, volume, err := registry.Snapshot(ctx)
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use.
package device
