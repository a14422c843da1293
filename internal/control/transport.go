package control

import (
	"context"

	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// Next skips to the next track on every target.
func (c *Controller) Next(ctx context.Context, host string) (Result, error) {
	return c.transport(ctx, ActionNext, host, device.Speaker.Next)
}

// Previous returns to the previous track on every target.
func (c *Controller) Previous(ctx context.Context, host string) (Result, error) {
	return c.transport(ctx, ActionPrevious, host, device.Speaker.Previous)
}

// Play starts playback on every target.
func (c *Controller) Play(ctx context.Context, host string) (Result, error) {
	return c.transport(ctx, ActionPlay, host, device.Speaker.Play)
}

// Pause pauses playback on every target.
func (c *Controller) Pause(ctx context.Context, host string) (Result, error) {
	return c.transport(ctx, ActionPause, host, device.Speaker.Pause)
}

// Stop stops playback on every target.
func (c *Controller) Stop(ctx context.Context, host string) (Result, error) {
	return c.transport(ctx, ActionStop, host, device.Speaker.Stop)
}

// SwitchToAuxInput selects the line-in / TV input on every target.
func (c *Controller) SwitchToAuxInput(ctx context.Context, host string) (Result, error) {
	return c.transport(ctx, ActionAuxInput, host, device.Speaker.SwitchToAuxInput)
}

// transport issues cmd to every target; history is never touched.
func (c *Controller) transport(ctx context.Context, action Action, host string, cmd func(device.Speaker, context.Context) error) (Result, error) {
	return c.dispatch(ctx, action, host, func(ctx context.Context, d device.Device, o *Outcome) {
		if err := cmd(d.Speaker, ctx); err != nil {
			o.fail(transportErr(err))
			return
		}
		o.Status = StatusApplied
	})
}
