package control

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// Snapshot is the volume a speaker had before its latest change.
type Snapshot struct {
	Volume     int       `json:"volume"`
	RecordedAt time.Time `json:"recordedAt"`
}

// History stores one Snapshot per host. It is safe for concurrent use;
// concurrent writers to the same host are last-writer-wins.
type History struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	now       func() time.Time
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{
		snapshots: make(map[string]Snapshot),
		now:       time.Now,
	}
}

// RecordBefore stores volume as host's snapshot, replacing any previous one.
func (h *History) RecordBefore(host string, volume int) {
	h.mu.Lock()
	h.snapshots[host] = Snapshot{Volume: volume, RecordedAt: h.now()}
	h.mu.Unlock()
}

// LastSnapshot returns host's recorded volume.
func (h *History) LastSnapshot(host string) (int, bool) {
	s, ok := h.Snapshot(host)
	return s.Volume, ok
}

// Snapshot returns host's full snapshot record.
func (h *History) Snapshot(host string) (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.snapshots[host]
	return s, ok
}

// Seed records each device's Volume as its snapshot.
func (h *History) Seed(devices []device.Device) {
	for _, d := range devices {
		h.RecordBefore(d.Host, d.Volume)
	}
}

// Len returns the number of hosts with a snapshot.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.snapshots)
}
