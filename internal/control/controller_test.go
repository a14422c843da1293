package control_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/control"
	"github.com/nerrad567/gray-logic-audio/internal/device"
	"github.com/nerrad567/gray-logic-audio/internal/device/devicetest"
)

const (
	hostA = "10.0.0.1"
	hostB = "10.0.0.2"
)

type fixture struct {
	net      *devicetest.Network
	registry *device.Registry
	history  *control.History
	ctrl     *control.Controller
}

// newFixture registers one speaker per volume, at 10.0.0.1, 10.0.0.2, ...
func newFixture(t *testing.T, volumes ...int) *fixture {
	t.Helper()
	net := devicetest.NewNetwork()
	hosts := []string{hostA, hostB, "10.0.0.3", "10.0.0.4"}

	var devices []device.Device
	for i, v := range volumes {
		net.Add(hosts[i], v)
		devices = append(devices, net.Device("RINCON_"+string(rune('A'+i)), hosts[i], "Speaker "+string(rune('A'+i)), "Living"))
	}
	registry := device.NewRegistry(device.Topology{Devices: devices, Source: device.SourceBroadcast})
	history := control.NewHistory()
	ctrl := control.New(registry, control.NewResolver(registry, net.Factory), history, control.Options{})
	return &fixture{net: net, registry: registry, history: history, ctrl: ctrl}
}

func (f *fixture) volume(host string) int {
	return f.net.Speaker(host).Current()
}

func (f *fixture) snapshot(t *testing.T, host string) int {
	t.Helper()
	v, ok := f.history.LastSnapshot(host)
	if !ok {
		t.Fatalf("no snapshot for %s", host)
	}
	return v
}

// mustOK returns a checker so a command's two results can be passed straight in:
//
//	mustOK(t)(f.ctrl.Undo(ctx, hostA))
func mustOK(t *testing.T) func(control.Result, error) control.Result {
	return func(res control.Result, err error) control.Result {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v (outcomes %+v)", err, res.Outcomes)
		}
		return res
	}
}

func TestScenario_TwoSpeakers(t *testing.T) {
	f := newFixture(t, 20, 40)
	ctx := context.Background()

	list, err := f.ctrl.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if list.Volume != 30 || len(list.Devices) != 2 {
		t.Fatalf("ListDevices() = volume %d, %d devices; want 30, 2", list.Volume, len(list.Devices))
	}

	mustOK(t)(f.ctrl.ChangeVolumeBy(ctx, hostA, 10))
	if f.volume(hostA) != 30 || f.snapshot(t, hostA) != 20 {
		t.Fatalf("after +10: A=%d snapshot=%d, want 30 and 20", f.volume(hostA), f.snapshot(t, hostA))
	}

	mustOK(t)(f.ctrl.Undo(ctx, hostA))
	if f.volume(hostA) != 20 {
		t.Fatalf("after undo: A=%d, want 20", f.volume(hostA))
	}

	mustOK(t)(f.ctrl.ToggleMute(ctx, hostB))
	if f.volume(hostB) != 0 || f.snapshot(t, hostB) != 40 {
		t.Fatalf("after mute: B=%d snapshot=%d, want 0 and 40", f.volume(hostB), f.snapshot(t, hostB))
	}

	mustOK(t)(f.ctrl.ToggleMute(ctx, hostB))
	if f.volume(hostB) != 40 {
		t.Fatalf("after unmute: B=%d, want 40", f.volume(hostB))
	}
}

func TestSetVolume_OutOfRangeNeverMutates(t *testing.T) {
	for _, value := range []int{-1, 101, 1000, -50} {
		f := newFixture(t, 20, 40)

		res, err := f.ctrl.SetVolume(context.Background(), "", value)
		if err != nil {
			t.Fatalf("SetVolume(%d) error = %v, rejection must be soft", value, err)
		}
		for _, o := range res.Outcomes {
			if o.Status != control.StatusRejected || !errors.Is(o.Err(), control.ErrOutOfRange) {
				t.Errorf("SetVolume(%d) outcome for %s = %s (%v), want rejected", value, o.Host, o.Status, o.Err())
			}
		}
		if f.volume(hostA) != 20 || f.volume(hostB) != 40 {
			t.Errorf("SetVolume(%d) changed volumes to %d/%d", value, f.volume(hostA), f.volume(hostB))
		}
		if f.history.Len() != 0 {
			t.Errorf("SetVolume(%d) created %d snapshots", value, f.history.Len())
		}
		if f.net.Speaker(hostA).Sets() != 0 {
			t.Errorf("SetVolume(%d) reached the speaker", value)
		}
	}
}

func TestChangeVolumeBy_RejectsOnlyOverflowingSibling(t *testing.T) {
	f := newFixture(t, 95, 40)

	res, err := f.ctrl.ChangeVolumeBy(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("ChangeVolumeBy() error = %v", err)
	}
	if res.Outcomes[0].Status != control.StatusRejected {
		t.Errorf("A status = %s, want rejected", res.Outcomes[0].Status)
	}
	if res.Outcomes[1].Status != control.StatusApplied {
		t.Errorf("B status = %s, want applied", res.Outcomes[1].Status)
	}
	if f.volume(hostA) != 95 || f.volume(hostB) != 50 {
		t.Errorf("volumes = %d/%d, want 95/50", f.volume(hostA), f.volume(hostB))
	}
	if _, ok := f.history.LastSnapshot(hostA); ok {
		t.Error("rejected speaker has a snapshot")
	}
}

func TestChangeVolumeBy_EachDeviceUsesOwnVolume(t *testing.T) {
	f := newFixture(t, 10, 70)

	mustOK(t)(f.ctrl.ChangeVolumeBy(context.Background(), "", 5))

	if f.volume(hostA) != 15 || f.volume(hostB) != 75 {
		t.Errorf("volumes = %d/%d, want 15/75", f.volume(hostA), f.volume(hostB))
	}
	if f.snapshot(t, hostA) != 10 || f.snapshot(t, hostB) != 70 {
		t.Errorf("snapshots = %d/%d, want 10/70", f.snapshot(t, hostA), f.snapshot(t, hostB))
	}
}

func TestChangeVolumeBy_ZeroRecordsSnapshot(t *testing.T) {
	f := newFixture(t, 33)
	f.history.RecordBefore(hostA, 80)

	res := mustOK(t)(f.ctrl.ChangeVolumeBy(context.Background(), hostA, 0))

	if f.volume(hostA) != 33 {
		t.Errorf("volume = %d, want unchanged 33", f.volume(hostA))
	}
	if f.snapshot(t, hostA) != 33 {
		t.Errorf("snapshot = %d, want 33 (zero delta still records)", f.snapshot(t, hostA))
	}
	if res.Outcomes[0].Status != control.StatusApplied {
		t.Errorf("status = %s, want applied", res.Outcomes[0].Status)
	}
}

func TestSnapshotDepthIsOne(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	mustOK(t)(f.ctrl.SetVolume(ctx, hostA, 20))
	mustOK(t)(f.ctrl.SetVolume(ctx, hostA, 30))
	if f.snapshot(t, hostA) != 20 {
		t.Fatalf("snapshot = %d, want 20", f.snapshot(t, hostA))
	}

	mustOK(t)(f.ctrl.Undo(ctx, hostA))
	if f.volume(hostA) != 20 {
		t.Fatalf("after first undo = %d, want 20", f.volume(hostA))
	}

	// The first undo was itself a mutation; undoing it returns to 30, not 10.
	mustOK(t)(f.ctrl.Undo(ctx, hostA))
	if f.volume(hostA) != 30 {
		t.Errorf("after second undo = %d, want 30", f.volume(hostA))
	}
}

func TestSnapshotReflectsDeviceNotRegistry(t *testing.T) {
	f := newFixture(t, 20)
	// Someone turned the knob; the registry still caches 20.
	f.net.Speaker(hostA).SetCurrent(55)

	mustOK(t)(f.ctrl.SetVolume(context.Background(), hostA, 60))

	if f.snapshot(t, hostA) != 55 {
		t.Errorf("snapshot = %d, want fresh read 55", f.snapshot(t, hostA))
	}
	if d, _ := f.registry.DeviceByHost(hostA); d.Volume != 60 {
		t.Errorf("registry volume = %d, want 60", d.Volume)
	}
}

func TestToggleMute_RoundTrip(t *testing.T) {
	for _, start := range []int{1, 25, 100} {
		f := newFixture(t, start)
		ctx := context.Background()

		mustOK(t)(f.ctrl.ToggleMute(ctx, hostA))
		if f.volume(hostA) != 0 {
			t.Fatalf("start %d: muted volume = %d", start, f.volume(hostA))
		}
		mustOK(t)(f.ctrl.ToggleMute(ctx, hostA))
		if f.volume(hostA) != start {
			t.Errorf("start %d: restored volume = %d", start, f.volume(hostA))
		}
	}
}

func TestToggleMute_MutedWithoutSnapshot(t *testing.T) {
	f := newFixture(t, 0)

	res, err := f.ctrl.ToggleMute(context.Background(), hostA)
	if err != nil {
		t.Fatalf("ToggleMute() error = %v", err)
	}
	o := res.Outcomes[0]
	if o.Status != control.StatusNoSnapshot || !errors.Is(o.Err(), control.ErrNoSnapshot) {
		t.Errorf("outcome = %s (%v), want no_snapshot", o.Status, o.Err())
	}
	if f.volume(hostA) != 0 {
		t.Errorf("volume = %d, want 0", f.volume(hostA))
	}
}

func TestUndo_NoSnapshot(t *testing.T) {
	f := newFixture(t, 20, 40)
	f.history.RecordBefore(hostB, 10)

	res, err := f.ctrl.Undo(context.Background(), "")
	if err != nil {
		t.Fatalf("Undo() error = %v, missing snapshot must not fail", err)
	}
	if res.Outcomes[0].Status != control.StatusNoSnapshot {
		t.Errorf("A status = %s, want no_snapshot", res.Outcomes[0].Status)
	}
	if res.Outcomes[1].Status != control.StatusApplied || f.volume(hostB) != 10 {
		t.Errorf("B status = %s volume = %d, want applied 10", res.Outcomes[1].Status, f.volume(hostB))
	}
	if f.volume(hostA) != 20 {
		t.Errorf("A volume = %d, want untouched 20", f.volume(hostA))
	}
}

func TestHostWithDefaultPortSharesHistory(t *testing.T) {
	f := newFixture(t, 20, 40)
	resolver := control.NewResolver(f.registry, f.net.Factory)
	resolver.SetHostNormalizer(func(h string) string { return strings.TrimSuffix(h, ":1400") })
	ctrl := control.New(f.registry, resolver, f.history, control.Options{})
	ctx := context.Background()

	res := mustOK(t)(ctrl.SetVolume(ctx, hostB+":1400", 55))
	if got := res.Outcomes[0].Host; got != hostB {
		t.Errorf("outcome host = %q, want %q", got, hostB)
	}
	if f.volume(hostB) != 55 {
		t.Fatalf("volume = %d, want 55", f.volume(hostB))
	}
	if got := f.snapshot(t, hostB); got != 40 {
		t.Errorf("snapshot = %d, want 40", got)
	}

	// A group undo finds the snapshot taken through the port-qualified host.
	mustOK(t)(ctrl.Undo(ctx, ""))
	if f.volume(hostB) != 40 {
		t.Errorf("after group undo volume = %d, want 40", f.volume(hostB))
	}

	mustOK(t)(ctrl.ToggleMute(ctx, hostB))
	mustOK(t)(ctrl.ToggleMute(ctx, hostB+":1400"))
	if f.volume(hostB) != 40 {
		t.Errorf("after mute round trip volume = %d, want 40", f.volume(hostB))
	}
}

func TestUnknownHostGetsFreshHandle(t *testing.T) {
	f := newFixture(t, 20)
	f.net.Add("10.0.0.99", 45)

	mustOK(t)(f.ctrl.VolumeUp(context.Background(), "10.0.0.99"))

	if f.volume("10.0.0.99") != 46 {
		t.Errorf("unregistered host volume = %d, want 46", f.volume("10.0.0.99"))
	}
	if f.volume(hostA) != 20 {
		t.Errorf("registered host touched: %d", f.volume(hostA))
	}
}

func TestTransportFailure_PartialApplication(t *testing.T) {
	f := newFixture(t, 20, 40)
	f.net.Speaker(hostB).FailSet(nil)

	res, err := f.ctrl.SetVolume(context.Background(), "", 50)
	if !errors.Is(err, control.ErrTransport) {
		t.Fatalf("SetVolume() error = %v, want ErrTransport", err)
	}
	if !errors.Is(err, devicetest.ErrUnreachable) {
		t.Errorf("error %v does not wrap the device error", err)
	}
	if res.OK() {
		t.Error("Result.OK() = true with a failed speaker")
	}
	if f.volume(hostA) != 50 {
		t.Errorf("A volume = %d, want 50 (no rollback)", f.volume(hostA))
	}
	if res.Outcomes[1].Status != control.StatusFailed || len(res.Failed()) != 1 {
		t.Errorf("B status = %s, failed = %d", res.Outcomes[1].Status, len(res.Failed()))
	}
	if _, ok := f.history.LastSnapshot(hostB); ok {
		t.Error("failed set recorded a snapshot")
	}
}

func TestTransportCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(*control.Controller, context.Context, string) (control.Result, error)
		want string
	}{
		{"next", (*control.Controller).Next, "next"},
		{"previous", (*control.Controller).Previous, "previous"},
		{"play", (*control.Controller).Play, "play"},
		{"pause", (*control.Controller).Pause, "pause"},
		{"stop", (*control.Controller).Stop, "stop"},
		{"aux input", (*control.Controller).SwitchToAuxInput, "aux_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 20, 40)

			res := mustOK(t)(tt.call(f.ctrl, context.Background(), ""))

			if len(res.Outcomes) != 2 {
				t.Fatalf("outcomes = %d, want 2", len(res.Outcomes))
			}
			for _, host := range []string{hostA, hostB} {
				if cmds := f.net.Speaker(host).Commands(); len(cmds) != 1 || cmds[0] != tt.want {
					t.Errorf("%s commands = %v, want [%s]", host, cmds, tt.want)
				}
			}
			if f.history.Len() != 0 {
				t.Error("transport command touched volume history")
			}
		})
	}
}

func TestTransportCommand_SingleFailure(t *testing.T) {
	f := newFixture(t, 20, 40)
	f.net.Speaker(hostA).Fail(nil)

	_, err := f.ctrl.Pause(context.Background(), "")
	if !errors.Is(err, control.ErrTransport) {
		t.Errorf("Pause() error = %v, want ErrTransport", err)
	}
	if cmds := f.net.Speaker(hostB).Commands(); len(cmds) != 1 {
		t.Errorf("healthy sibling commands = %v", cmds)
	}
}

func TestCommandTimeout(t *testing.T) {
	f := newFixture(t, 20)
	f.ctrl = control.New(f.registry, control.NewResolver(f.registry, f.net.Factory), f.history,
		control.Options{CommandTimeout: 20 * time.Millisecond})
	f.net.Speaker(hostA).Block()
	defer f.net.Speaker(hostA).Unblock()

	start := time.Now()
	_, err := f.ctrl.Play(context.Background(), hostA)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Play() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("command timeout not enforced")
	}
}

func TestFanOutIsConcurrent(t *testing.T) {
	f := newFixture(t, 10, 20, 30, 40)
	f.ctrl = control.New(f.registry, control.NewResolver(f.registry, f.net.Factory), f.history,
		control.Options{CommandTimeout: 150 * time.Millisecond})
	hosts := []string{hostA, hostB, "10.0.0.3", "10.0.0.4"}
	for _, h := range hosts {
		f.net.Speaker(h).Block()
	}
	defer func() {
		for _, h := range hosts {
			f.net.Speaker(h).Unblock()
		}
	}()

	// Four blocked speakers each burn the full timeout; run one after
	// another that would take 600ms.
	start := time.Now()
	res, err := f.ctrl.Play(context.Background(), "")
	elapsed := time.Since(start)

	if !errors.Is(err, control.ErrTransport) || len(res.Failed()) != 4 {
		t.Fatalf("Play() = %d failed, error %v", len(res.Failed()), err)
	}
	if elapsed > 450*time.Millisecond {
		t.Errorf("fan-out took %v, speakers were not commanded concurrently", elapsed)
	}
}

func TestMaxConcurrency(t *testing.T) {
	f := newFixture(t, 10, 20, 30)
	f.ctrl = control.New(f.registry, control.NewResolver(f.registry, f.net.Factory), f.history,
		control.Options{MaxConcurrency: 1})

	res := mustOK(t)(f.ctrl.SetVolume(context.Background(), "", 42))

	if len(res.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(res.Outcomes))
	}
	for i, o := range res.Outcomes {
		if o.Status != control.StatusApplied || o.VolumeOr(-1) != 42 {
			t.Errorf("outcome %d = %+v", i, o)
		}
	}
}

func TestEmptyRegistry(t *testing.T) {
	f := newFixture(t)

	res := mustOK(t)(f.ctrl.SetVolume(context.Background(), "", 10))
	if len(res.Outcomes) != 0 {
		t.Errorf("outcomes = %d, want 0", len(res.Outcomes))
	}

	list, err := f.ctrl.ListDevices(context.Background())
	if err != nil || list.Volume != 0 {
		t.Errorf("ListDevices() = (%d, %v), want (0, nil)", list.Volume, err)
	}
}

func TestDeviceByUUID(t *testing.T) {
	f := newFixture(t, 20, 40)
	f.net.Speaker(hostB).SetCurrent(41)

	d, err := f.ctrl.DeviceByUUID(context.Background(), "RINCON_B")
	if err != nil {
		t.Fatalf("DeviceByUUID() error = %v", err)
	}
	if d.Host != hostB || d.Volume != 41 {
		t.Errorf("device = %s vol %d, want %s vol 41", d.Host, d.Volume, hostB)
	}

	if _, err := f.ctrl.DeviceByUUID(context.Background(), "RINCON_Z"); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("DeviceByUUID(unknown) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestListDevices_ReadFailure(t *testing.T) {
	f := newFixture(t, 20, 40)
	f.net.Speaker(hostA).Fail(nil)

	if _, err := f.ctrl.ListDevices(context.Background()); !errors.Is(err, control.ErrTransport) {
		t.Errorf("ListDevices() error = %v, want ErrTransport", err)
	}
}

func TestSeedHistory(t *testing.T) {
	f := newFixture(t, 20, 0)

	if err := f.ctrl.SeedHistory(context.Background()); err != nil {
		t.Fatalf("SeedHistory() error = %v", err)
	}
	if f.snapshot(t, hostA) != 20 || f.snapshot(t, hostB) != 0 {
		t.Errorf("seeded snapshots = %d/%d, want 20/0", f.snapshot(t, hostA), f.snapshot(t, hostB))
	}
}

type stubDiscoverer struct {
	topology device.Topology
	err      error
}

func (s stubDiscoverer) Discover(context.Context) (device.Topology, error) {
	return s.topology, s.err
}

func TestRediscover(t *testing.T) {
	f := newFixture(t, 20, 40)

	if _, err := f.ctrl.Rediscover(context.Background()); !errors.Is(err, control.ErrNoDiscoverer) {
		t.Errorf("Rediscover() without discoverer error = %v", err)
	}

	f.ctrl.SetDiscoverer(stubDiscoverer{err: errors.New("network down")})
	if _, err := f.ctrl.Rediscover(context.Background()); err == nil {
		t.Error("Rediscover() expected error")
	}
	if f.registry.Len() != 2 {
		t.Errorf("failed rediscovery changed registry to %d devices", f.registry.Len())
	}

	f.net.Add("10.0.0.7", 5)
	f.ctrl.SetDiscoverer(stubDiscoverer{topology: device.Topology{
		Devices: []device.Device{f.net.Device("RINCON_X", "10.0.0.7", "Den", "Den")},
	}})
	topo, err := f.ctrl.Rediscover(context.Background())
	if err != nil {
		t.Fatalf("Rediscover() error = %v", err)
	}
	if len(topo.Devices) != 1 || f.registry.Len() != 1 {
		t.Errorf("registry has %d devices after rediscovery, want 1", f.registry.Len())
	}
	if groups := f.ctrl.Groups(); len(groups) != 1 || groups[0].Name != "Den" {
		t.Errorf("Groups() = %+v", groups)
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []control.Event
	group  []int
}

func (r *recordingObserver) Observe(_ context.Context, ev control.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingObserver) ObserveGroupVolume(_ context.Context, volume, _ int) {
	r.mu.Lock()
	r.group = append(r.group, volume)
	r.mu.Unlock()
}

func TestObservers(t *testing.T) {
	f := newFixture(t, 20, 40)
	obs := &recordingObserver{}
	f.ctrl.AddObserver(obs)

	ctx := control.WithSource(context.Background(), "api")
	ctx = control.WithRequestID(ctx, "req-1")
	mustOK(t)(f.ctrl.VolumeDown(ctx, hostA))
	if _, err := f.ctrl.ListDevices(ctx); err != nil {
		t.Fatal(err)
	}

	if len(obs.events) != 1 {
		t.Fatalf("events = %d, want 1", len(obs.events))
	}
	ev := obs.events[0]
	if ev.Source != "api" || ev.RequestID != "req-1" || ev.Action != control.ActionVolumeDown || ev.Timestamp.IsZero() {
		t.Errorf("event = %+v", ev)
	}
	o := ev.Outcomes[0]
	if o.PreviousOr(-1) != 20 || o.VolumeOr(-1) != 19 || o.UUID != "RINCON_A" {
		t.Errorf("outcome = %+v", o)
	}
	if len(obs.group) != 1 || obs.group[0] != 30 {
		t.Errorf("group volumes = %v, want [30]", obs.group)
	}
}
