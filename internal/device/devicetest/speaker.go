// Package devicetest provides an in-memory device.Speaker for tests.
package devicetest

import (
	"context"
	"errors"
	"sync"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// ErrUnreachable is the default error injected by Fail.
var ErrUnreachable = errors.New("devicetest: speaker unreachable")

// Speaker is a thread-safe fake speaker that remembers its volume and the
// transport commands it received.
type Speaker struct {
	mu       sync.Mutex
	host     string
	volume   int
	commands []string
	reads    int
	sets     int

	readErr error
	setErr  error
	cmdErr  error

	// block, when non-nil, is waited on by every call (or ctx cancellation).
	block chan struct{}
}

var _ device.Speaker = (*Speaker)(nil)

// NewSpeaker returns a fake at host with an initial volume.
func NewSpeaker(host string, volume int) *Speaker {
	return &Speaker{host: host, volume: volume}
}

// Host implements device.Speaker.
func (s *Speaker) Host() string { return s.host }

// Volume implements device.Speaker.
func (s *Speaker) Volume(ctx context.Context) (int, error) {
	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return 0, s.readErr
	}
	return s.volume, nil
}

// SetVolume implements device.Speaker.
func (s *Speaker) SetVolume(ctx context.Context, v int) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.volume = v
	return nil
}

func (s *Speaker) Next(ctx context.Context) error     { return s.command(ctx, "next") }
func (s *Speaker) Previous(ctx context.Context) error { return s.command(ctx, "previous") }
func (s *Speaker) Play(ctx context.Context) error     { return s.command(ctx, "play") }
func (s *Speaker) Pause(ctx context.Context) error    { return s.command(ctx, "pause") }
func (s *Speaker) Stop(ctx context.Context) error     { return s.command(ctx, "stop") }

// SwitchToAuxInput implements device.Speaker.
func (s *Speaker) SwitchToAuxInput(ctx context.Context) error { return s.command(ctx, "aux_input") }

func (s *Speaker) command(ctx context.Context, name string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmdErr != nil {
		return s.cmdErr
	}
	s.commands = append(s.commands, name)
	return nil
}

func (s *Speaker) wait(ctx context.Context) error {
	s.mu.Lock()
	block := s.block
	s.mu.Unlock()
	if block == nil {
		return ctx.Err()
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetCurrent changes the volume as if someone turned the knob.
func (s *Speaker) SetCurrent(v int) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

// Current returns the volume without counting as a read.
func (s *Speaker) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Fail makes every call return err (ErrUnreachable when nil).
func (s *Speaker) Fail(err error) {
	if err == nil {
		err = ErrUnreachable
	}
	s.mu.Lock()
	s.readErr, s.setErr, s.cmdErr = err, err, err
	s.mu.Unlock()
}

// FailSet makes only SetVolume fail.
func (s *Speaker) FailSet(err error) {
	if err == nil {
		err = ErrUnreachable
	}
	s.mu.Lock()
	s.setErr = err
	s.mu.Unlock()
}

// Block makes every call wait until Unblock or ctx cancellation.
func (s *Speaker) Block() {
	s.mu.Lock()
	s.block = make(chan struct{})
	s.mu.Unlock()
}

// Unblock releases blocked calls.
func (s *Speaker) Unblock() {
	s.mu.Lock()
	if s.block != nil {
		close(s.block)
		s.block = nil
	}
	s.mu.Unlock()
}

// Commands returns the transport commands received, in order.
func (s *Speaker) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Reads returns how many volume reads were served.
func (s *Speaker) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Sets returns how many SetVolume calls succeeded.
func (s *Speaker) Sets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

// Network is a set of fake speakers addressable by host. Its Factory
// returns the same Speaker for a host on every call, as a real network
// would route to the same box.
type Network struct {
	mu       sync.Mutex
	speakers map[string]*Speaker
}

// NewNetwork creates an empty fake network.
func NewNetwork() *Network {
	return &Network{speakers: make(map[string]*Speaker)}
}

// Add places a speaker at host and returns it.
func (n *Network) Add(host string, volume int) *Speaker {
	s := NewSpeaker(host, volume)
	n.mu.Lock()
	n.speakers[host] = s
	n.mu.Unlock()
	return s
}

// Speaker returns the fake at host, creating a silent one when absent.
func (n *Network) Speaker(host string) *Speaker {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.speakers[host]
	if !ok {
		s = NewSpeaker(host, 0)
		s.readErr, s.setErr, s.cmdErr = ErrUnreachable, ErrUnreachable, ErrUnreachable
		n.speakers[host] = s
	}
	return s
}

// Factory is a device.SpeakerFactory over the network.
func (n *Network) Factory(host string) device.Speaker {
	return n.Speaker(host)
}

// Device builds a registry device for the speaker at host.
func (n *Network) Device(uuid, host, name, group string) device.Device {
	s := n.Speaker(host)
	return device.Device{
		UUID:      uuid,
		Host:      host,
		Name:      name,
		GroupName: group,
		Volume:    s.Current(),
		Speaker:   s,
	}
}
