package device

import (
	"context"
	"time"
)

// Volume bounds accepted by every speaker.
const (
	MinVolume = 0
	MaxVolume = 100
)

// Discovery sources recorded on a Topology.
const (
	SourceBroadcast = "broadcast"
	SourceFallback  = "fallback"
	SourceScan      = "scan"
)

// Speaker is the capability handle for one networked speaker.
//
// Implementations adapt their wire protocol into this shape once; callers
// never see transport-specific response types. Every call may block for a
// network round trip and must honour ctx.
type Speaker interface {
	// Host returns the network address the handle talks to.
	Host() string

	// Volume reads the current master volume (0-100) from the device.
	Volume(ctx context.Context) (int, error)

	// SetVolume sets the master volume. Callers validate the range.
	SetVolume(ctx context.Context, volume int) error

	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error

	// SwitchToAuxInput selects the line-in / TV input.
	SwitchToAuxInput(ctx context.Context) error
}

// SpeakerFactory builds a fresh handle for a host.
type SpeakerFactory func(host string) Speaker

// Device is one controllable speaker.
type Device struct {
	UUID      string `json:"uuid"`
	Host      string `json:"host"`
	Name      string `json:"name"`
	GroupName string `json:"groupName"`

	// Volume is the last known volume. It is refreshed by live reads and
	// successful sets, and is never used as a mutation baseline.
	Volume int `json:"volume"`

	Speaker Speaker `json:"-"`
}

// Topology is the ordered result of one discovery attempt.
// It is treated as immutable once built.
type Topology struct {
	Devices      []Device  `json:"devices"`
	Source       string    `json:"source"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}

// Group is a set of devices sharing a GroupName.
type Group struct {
	Name    string   `json:"name"`
	Devices []Device `json:"devices"`
}

// Groups partitions the topology by GroupName, in first-seen order.
func (t Topology) Groups() []Group {
	return groupDevices(t.Devices)
}

func groupDevices(devices []Device) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, d := range devices {
		i, ok := index[d.GroupName]
		if !ok {
			i = len(groups)
			index[d.GroupName] = i
			groups = append(groups, Group{Name: d.GroupName})
		}
		groups[i].Devices = append(groups[i].Devices, d)
	}
	return groups
}

// ValidVolume reports whether v is within [MinVolume, MaxVolume].
func ValidVolume(v int) bool {
	return v >= MinVolume && v <= MaxVolume
}

// AggregateVolume returns round(mean(volumes)), or 0 for no volumes.
func AggregateVolume(volumes []int) int {
	if len(volumes) == 0 {
		return 0
	}
	sum := 0
	for _, v := range volumes {
		sum += v
	}
	return int(roundHalfUp(float64(sum) / float64(len(volumes))))
}
