package control

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// VolumeUp raises every target's volume by one.
func (c *Controller) VolumeUp(ctx context.Context, host string) (Result, error) {
	return c.changeBy(ctx, ActionVolumeUp, host, 1)
}

// VolumeDown lowers every target's volume by one.
func (c *Controller) VolumeDown(ctx context.Context, host string) (Result, error) {
	return c.changeBy(ctx, ActionVolumeDown, host, -1)
}

// ChangeVolumeBy adds delta to each target's own current volume. One
// speaker's volume is never derived from another's.
func (c *Controller) ChangeVolumeBy(ctx context.Context, host string, delta int) (Result, error) {
	return c.changeBy(ctx, ActionVolumeChange, host, delta)
}

func (c *Controller) changeBy(ctx context.Context, action Action, host string, delta int) (Result, error) {
	return c.dispatch(ctx, action, host, func(ctx context.Context, d device.Device, o *Outcome) {
		current, err := d.Speaker.Volume(ctx)
		if err != nil {
			o.fail(transportErr(err))
			return
		}
		c.clampSet(ctx, d, o, current+delta, &current)
	})
}

// SetVolume sets every target to value.
func (c *Controller) SetVolume(ctx context.Context, host string, value int) (Result, error) {
	return c.dispatch(ctx, ActionVolumeSet, host, func(ctx context.Context, d device.Device, o *Outcome) {
		c.clampSet(ctx, d, o, value, nil)
	})
}

// ToggleMute mutes speakers that are playing and restores muted ones to
// their last snapshot. A muted speaker with no snapshot reports
// StatusNoSnapshot and stays muted.
func (c *Controller) ToggleMute(ctx context.Context, host string) (Result, error) {
	return c.dispatch(ctx, ActionToggleMute, host, func(ctx context.Context, d device.Device, o *Outcome) {
		current, err := d.Speaker.Volume(ctx)
		if err != nil {
			o.fail(transportErr(err))
			return
		}
		if current != 0 {
			c.clampSet(ctx, d, o, 0, &current)
			return
		}

		restore, ok := c.history.LastSnapshot(d.Host)
		if !ok {
			o.Previous = intPtr(current)
			o.Volume = intPtr(current)
			o.soft(StatusNoSnapshot, fmt.Errorf("%w: %s", ErrNoSnapshot, d.Host))
			return
		}
		c.clampSet(ctx, d, o, restore, &current)
	})
}

// Undo returns each target to its last snapshot. Hosts without a snapshot
// report StatusNoSnapshot; that is not an error.
func (c *Controller) Undo(ctx context.Context, host string) (Result, error) {
	return c.dispatch(ctx, ActionUndo, host, func(ctx context.Context, d device.Device, o *Outcome) {
		restore, ok := c.history.LastSnapshot(d.Host)
		if !ok {
			o.soft(StatusNoSnapshot, fmt.Errorf("%w: %s", ErrNoSnapshot, d.Host))
			return
		}
		c.clampSet(ctx, d, o, restore, nil)
	})
}

// clampSet applies desired to one speaker.
//
// before, when non-nil, is a live read taken earlier in the same
// operation for this speaker and is used as the snapshot without reading
// again. ChangeVolumeBy and ToggleMute pass it, so they read once per
// speaker and there is no second read right before the set: a volume
// moved elsewhere between computing the target and setting it is not what
// undo restores. Otherwise a fresh read is taken here. The snapshot is
// recorded only after the speaker accepted the new volume.
func (c *Controller) clampSet(ctx context.Context, d device.Device, o *Outcome, desired int, before *int) {
	o.Requested = intPtr(desired)
	if !device.ValidVolume(desired) {
		o.soft(StatusRejected, fmt.Errorf("%w: %d", ErrOutOfRange, desired))
		return
	}

	var previous int
	if before != nil {
		previous = *before
	} else {
		v, err := d.Speaker.Volume(ctx)
		if err != nil {
			o.fail(transportErr(err))
			return
		}
		previous = v
	}
	o.Previous = intPtr(previous)

	if err := d.Speaker.SetVolume(ctx, desired); err != nil {
		o.fail(transportErr(err))
		return
	}

	c.history.RecordBefore(d.Host, previous)
	c.registry.UpdateVolume(d.Host, desired)
	o.Status = StatusApplied
	o.Volume = intPtr(desired)
}
