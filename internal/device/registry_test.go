package device_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/device"
	"github.com/nerrad567/gray-logic-audio/internal/device/devicetest"
)

func testTopology(net *devicetest.Network) device.Topology {
	return device.Topology{
		Source:       device.SourceBroadcast,
		DiscoveredAt: time.Now(),
		Devices: []device.Device{
			net.Device("RINCON_A", "10.0.0.1", "Kitchen", "Downstairs"),
			net.Device("RINCON_B", "10.0.0.2", "Lounge", "Downstairs"),
			net.Device("RINCON_C", "10.0.0.3", "Office", "Office"),
		},
	}
}

func TestRegistry_Lookups(t *testing.T) {
	net := devicetest.NewNetwork()
	net.Add("10.0.0.1", 20)
	net.Add("10.0.0.2", 40)
	net.Add("10.0.0.3", 60)
	r := device.NewRegistry(testTopology(net))

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	devices := r.Devices()
	for i, want := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if devices[i].Host != want {
			t.Errorf("Devices()[%d].Host = %q, want %q (discovery order)", i, devices[i].Host, want)
		}
	}

	t.Run("by uuid", func(t *testing.T) {
		d, err := r.DeviceByUUID("RINCON_B")
		if err != nil {
			t.Fatalf("DeviceByUUID() error = %v", err)
		}
		if d.Name != "Lounge" {
			t.Errorf("Name = %q, want Lounge", d.Name)
		}
	})

	t.Run("unknown uuid", func(t *testing.T) {
		_, err := r.DeviceByUUID("RINCON_Z")
		if !errors.Is(err, device.ErrDeviceNotFound) {
			t.Errorf("DeviceByUUID() error = %v, want ErrDeviceNotFound", err)
		}
	})

	t.Run("by host", func(t *testing.T) {
		if _, ok := r.DeviceByHost("10.0.0.3"); !ok {
			t.Error("DeviceByHost(10.0.0.3) not found")
		}
		if _, ok := r.DeviceByHost("10.0.0.9"); ok {
			t.Error("DeviceByHost(10.0.0.9) found unexpectedly")
		}
	})

	t.Run("copies", func(t *testing.T) {
		devices := r.Devices()
		devices[0].Name = "mutated"
		if d, _ := r.DeviceByHost("10.0.0.1"); d.Name != "Kitchen" {
			t.Error("mutating Devices() result changed the registry")
		}
	})
}

func TestRegistry_Replace(t *testing.T) {
	net := devicetest.NewNetwork()
	r := device.NewRegistry(testTopology(net))

	r.Replace(device.Topology{
		Source:  device.SourceFallback,
		Devices: []device.Device{net.Device("RINCON_D", "10.0.0.4", "Patio", "Patio")},
	})

	if r.Len() != 1 {
		t.Fatalf("Len() = %d after Replace, want 1", r.Len())
	}
	if _, ok := r.DeviceByHost("10.0.0.1"); ok {
		t.Error("old device still registered after Replace")
	}
	if _, err := r.DeviceByUUID("RINCON_D"); err != nil {
		t.Errorf("DeviceByUUID(new) error = %v", err)
	}
	if r.Topology().Source != device.SourceFallback {
		t.Errorf("Topology().Source = %q", r.Topology().Source)
	}
}

func TestRegistry_Groups(t *testing.T) {
	net := devicetest.NewNetwork()
	r := device.NewRegistry(testTopology(net))

	groups := r.Groups()
	if len(groups) != 2 {
		t.Fatalf("Groups() = %d groups, want 2", len(groups))
	}
	if groups[0].Name != "Downstairs" || len(groups[0].Devices) != 2 {
		t.Errorf("groups[0] = %s with %d devices", groups[0].Name, len(groups[0].Devices))
	}
	if groups[1].Name != "Office" || len(groups[1].Devices) != 1 {
		t.Errorf("groups[1] = %s with %d devices", groups[1].Name, len(groups[1].Devices))
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	net := devicetest.NewNetwork()
	net.Add("10.0.0.1", 20)
	net.Add("10.0.0.2", 40)
	net.Add("10.0.0.3", 60)
	r := device.NewRegistry(testTopology(net))

	// Knob turned behind our back; Snapshot must read live values.
	net.Speaker("10.0.0.3").SetCurrent(90)

	devices, volume, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if volume != 50 {
		t.Errorf("group volume = %d, want 50", volume)
	}
	if devices[2].Volume != 90 {
		t.Errorf("devices[2].Volume = %d, want 90", devices[2].Volume)
	}
	if d, _ := r.DeviceByHost("10.0.0.3"); d.Volume != 90 {
		t.Errorf("cached volume = %d, want 90", d.Volume)
	}
}

func TestRegistry_SnapshotReadFailure(t *testing.T) {
	net := devicetest.NewNetwork()
	net.Add("10.0.0.1", 20)
	net.Add("10.0.0.2", 40).Fail(nil)
	net.Add("10.0.0.3", 60)
	r := device.NewRegistry(testTopology(net))

	_, _, err := r.Snapshot(context.Background())
	if !errors.Is(err, device.ErrVolumeRead) {
		t.Errorf("Snapshot() error = %v, want ErrVolumeRead", err)
	}
	if !errors.Is(err, devicetest.ErrUnreachable) {
		t.Errorf("Snapshot() error = %v, want wrapped transport error", err)
	}
}

func TestRegistry_SnapshotTimeout(t *testing.T) {
	net := devicetest.NewNetwork()
	net.Add("10.0.0.1", 20).Block()
	r := device.NewRegistry(device.Topology{Devices: []device.Device{net.Device("A", "10.0.0.1", "A", "A")}})
	r.SetReadTimeout(20 * time.Millisecond)

	_, _, err := r.Snapshot(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Snapshot() error = %v, want DeadlineExceeded", err)
	}
}

func TestRegistry_EmptyGroupVolume(t *testing.T) {
	r := device.NewRegistry(device.Topology{})

	v, err := r.GroupVolume(context.Background())
	if err != nil {
		t.Fatalf("GroupVolume() error = %v", err)
	}
	if v != 0 {
		t.Errorf("GroupVolume() = %d, want 0 for empty registry", v)
	}
}

func TestRegistry_UpdateVolume(t *testing.T) {
	net := devicetest.NewNetwork()
	r := device.NewRegistry(testTopology(net))

	r.UpdateVolume("10.0.0.2", 77)
	r.UpdateVolume("10.9.9.9", 1) // unknown host ignored

	if d, _ := r.DeviceByHost("10.0.0.2"); d.Volume != 77 {
		t.Errorf("Volume = %d, want 77", d.Volume)
	}
}

func TestRegistry_NoSpeaker(t *testing.T) {
	r := device.NewRegistry(device.Topology{Devices: []device.Device{{UUID: "X", Host: "10.0.0.8"}}})

	_, _, err := r.Snapshot(context.Background())
	if !errors.Is(err, device.ErrNoSpeaker) {
		t.Errorf("Snapshot() error = %v, want ErrNoSpeaker", err)
	}
}
