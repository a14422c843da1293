package control

import (
	"context"
	"fmt"
)

// Command is a request to run one action by name. Value is the absolute
// volume for volume_set and the delta for volume_change; other actions
// ignore it.
type Command struct {
	Action Action `json:"action"`
	Host   string `json:"host,omitempty"`
	Value  int    `json:"value,omitempty"`
}

// Execute runs cmd. It lets transports that carry the action as data
// (MQTT topics, queued jobs) share one dispatch table.
func (c *Controller) Execute(ctx context.Context, cmd Command) (Result, error) {
	switch cmd.Action {
	case ActionVolumeUp:
		return c.VolumeUp(ctx, cmd.Host)
	case ActionVolumeDown:
		return c.VolumeDown(ctx, cmd.Host)
	case ActionVolumeChange:
		return c.ChangeVolumeBy(ctx, cmd.Host, cmd.Value)
	case ActionVolumeSet:
		return c.SetVolume(ctx, cmd.Host, cmd.Value)
	case ActionToggleMute:
		return c.ToggleMute(ctx, cmd.Host)
	case ActionUndo:
		return c.Undo(ctx, cmd.Host)
	case ActionNext:
		return c.Next(ctx, cmd.Host)
	case ActionPrevious:
		return c.Previous(ctx, cmd.Host)
	case ActionPlay:
		return c.Play(ctx, cmd.Host)
	case ActionPause:
		return c.Pause(ctx, cmd.Host)
	case ActionStop:
		return c.Stop(ctx, cmd.Host)
	case ActionAuxInput:
		return c.SwitchToAuxInput(ctx, cmd.Host)
	}
	return Result{Action: cmd.Action}, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
}
