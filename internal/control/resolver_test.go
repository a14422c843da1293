package control_test

import (
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-audio/internal/control"
	"github.com/nerrad567/gray-logic-audio/internal/device"
	"github.com/nerrad567/gray-logic-audio/internal/device/devicetest"
)

func TestResolver_Resolve(t *testing.T) {
	net := devicetest.NewNetwork()
	registered := []device.Device{
		net.Device("RINCON_A", "10.0.0.1", "Kitchen", "Downstairs"),
		net.Device("RINCON_B", "10.0.0.2", "Lounge", "Downstairs"),
		net.Device("RINCON_C", "10.0.0.3", "Office", "Office"),
	}

	tests := []struct {
		name     string
		devices  []device.Device
		host     string
		wantLen  int
		wantName string
	}{
		{name: "empty host returns registry", devices: registered, host: "", wantLen: 3},
		{name: "empty host on empty registry", devices: nil, host: "", wantLen: 0},
		{name: "known host", devices: registered, host: "10.0.0.2", wantLen: 1, wantName: "Lounge"},
		{name: "unknown host", devices: registered, host: "10.0.0.50", wantLen: 1},
		{name: "host on empty registry", devices: nil, host: "10.0.0.50", wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := device.NewRegistry(device.Topology{Devices: tt.devices})
			r := control.NewResolver(reg, net.Factory)

			got := r.Resolve(tt.host)
			if len(got) != tt.wantLen {
				t.Fatalf("Resolve(%q) = %d devices, want %d", tt.host, len(got), tt.wantLen)
			}
			if tt.host == "" {
				for i := range got {
					if got[i].Host != tt.devices[i].Host {
						t.Errorf("device %d = %s, want registry order", i, got[i].Host)
					}
				}
				return
			}
			if got[0].Host != tt.host || got[0].Speaker == nil {
				t.Errorf("Resolve(%q) = %+v", tt.host, got[0])
			}
			if got[0].Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got[0].Name, tt.wantName)
			}
		})
	}
}

func TestResolver_HostAlwaysFreshHandle(t *testing.T) {
	net := devicetest.NewNetwork()
	stale := devicetest.NewSpeaker("10.0.0.1", 0)
	reg := device.NewRegistry(device.Topology{Devices: []device.Device{
		{UUID: "A", Host: "10.0.0.1", Speaker: stale},
	}})

	calls := 0
	r := control.NewResolver(reg, func(host string) device.Speaker {
		calls++
		return net.Factory(host)
	})

	got := r.Resolve("10.0.0.1")
	if got[0].Speaker == device.Speaker(stale) {
		t.Error("Resolve(host) reused the registry handle")
	}
	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
}

func TestResolver_NormalizesHost(t *testing.T) {
	net := devicetest.NewNetwork()
	reg := device.NewRegistry(device.Topology{Devices: []device.Device{
		net.Device("RINCON_A", "10.0.0.1", "Kitchen", "Downstairs"),
		net.Device("RINCON_B", "10.0.0.2", "Lounge", "Downstairs"),
	}})
	r := control.NewResolver(reg, net.Factory)
	r.SetHostNormalizer(func(h string) string { return strings.TrimSuffix(h, ":1400") })

	tests := []struct {
		name     string
		host     string
		wantLen  int
		wantHost string
		wantName string
	}{
		{name: "default port", host: "10.0.0.2:1400", wantLen: 1, wantHost: "10.0.0.2", wantName: "Lounge"},
		{name: "surrounding space", host: " 10.0.0.1 ", wantLen: 1, wantHost: "10.0.0.1", wantName: "Kitchen"},
		{name: "other port kept", host: "10.0.0.2:8080", wantLen: 1, wantHost: "10.0.0.2:8080"},
		{name: "blank means all", host: "   ", wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.host)
			if len(got) != tt.wantLen {
				t.Fatalf("Resolve(%q) = %d devices, want %d", tt.host, len(got), tt.wantLen)
			}
			if tt.wantHost == "" {
				return
			}
			if got[0].Host != tt.wantHost || got[0].Name != tt.wantName {
				t.Errorf("Resolve(%q) = host %q name %q; want %q %q",
					tt.host, got[0].Host, got[0].Name, tt.wantHost, tt.wantName)
			}
			if got[0].Speaker == nil || got[0].Speaker.Host() != tt.wantHost {
				t.Errorf("Resolve(%q) speaker not bound to %s", tt.host, tt.wantHost)
			}
		})
	}
}
