package control

import "github.com/nerrad567/gray-logic-audio/internal/device"

// Action names a controller operation. The values double as MQTT command
// topic suffixes and command log entries.
type Action string

const (
	ActionVolumeUp     Action = "volume_up"
	ActionVolumeDown   Action = "volume_down"
	ActionVolumeChange Action = "volume_change"
	ActionVolumeSet    Action = "volume_set"
	ActionToggleMute   Action = "toggle_mute"
	ActionUndo         Action = "undo"
	ActionNext         Action = "next"
	ActionPrevious     Action = "previous"
	ActionPlay         Action = "play"
	ActionPause        Action = "pause"
	ActionStop         Action = "stop"
	ActionAuxInput     Action = "aux_input"
	ActionSeed         Action = "seed"
)

// IsVolume reports whether the action changes volume.
func (a Action) IsVolume() bool {
	switch a {
	case ActionVolumeUp, ActionVolumeDown, ActionVolumeChange, ActionVolumeSet, ActionToggleMute, ActionUndo:
		return true
	}
	return false
}

// Status is the per-speaker result of an action.
type Status string

const (
	StatusApplied    Status = "applied"
	StatusRejected   Status = "rejected"
	StatusNoSnapshot Status = "no_snapshot"
	StatusFailed     Status = "failed"
)

// Outcome reports what one action did to one speaker.
//
// Previous is the fresh pre-change read and Volume the volume after the
// action; both are nil when not applicable. Requested is the computed
// target, set even when it was rejected.
type Outcome struct {
	Host      string `json:"host"`
	UUID      string `json:"uuid,omitempty"`
	Name      string `json:"name,omitempty"`
	Action    Action `json:"action"`
	Status    Status `json:"status"`
	Previous  *int   `json:"previous,omitempty"`
	Volume    *int   `json:"volume,omitempty"`
	Requested *int   `json:"requested,omitempty"`
	Error     string `json:"error,omitempty"`

	err error
}

// Err returns the underlying error for failed, rejected and no_snapshot outcomes.
func (o Outcome) Err() error {
	return o.err
}

// PreviousOr returns Previous or def when unset.
func (o Outcome) PreviousOr(def int) int {
	if o.Previous == nil {
		return def
	}
	return *o.Previous
}

// VolumeOr returns Volume or def when unset.
func (o Outcome) VolumeOr(def int) int {
	if o.Volume == nil {
		return def
	}
	return *o.Volume
}

func (o *Outcome) describe(d device.Device, action Action) {
	o.Host = d.Host
	o.UUID = d.UUID
	o.Name = d.Name
	o.Action = action
}

func (o *Outcome) fail(err error) {
	o.Status = StatusFailed
	o.err = err
	o.Error = err.Error()
}

func (o *Outcome) soft(status Status, err error) {
	o.Status = status
	o.err = err
	o.Error = err.Error()
}

// Result is the outcome of one action over its whole target set.
type Result struct {
	Action   Action    `json:"action"`
	Outcomes []Outcome `json:"outcomes"`
}

// OK reports whether no speaker failed.
func (r Result) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the outcomes with StatusFailed.
func (r Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// DeviceList is the registry view returned by ListDevices.
type DeviceList struct {
	Devices []device.Device `json:"devices"`
	Volume  int             `json:"volume"`
}

func intPtr(v int) *int { return &v }
