package controller

import "time"

// Trigger is a user input or timer event applied to a Snapshot
type Trigger interface {
	Name() string
	trigger()
}

// OpenPicker is a click on the drop zone.
type OpenPicker struct{}

// FileChosen is the result of the native file-selection dialog.
// Only the first file is used.
type FileChosen struct {
	Files []SelectedFile
}

// DragOver reports a drag hovering the drop zone.
type DragOver struct {
	HasFiles bool
}

// DragLeave reports the drag leaving the drop zone without dropping.
type DragLeave struct{}

// Drop is a payload released on the drop zone.
type Drop struct {
	Files []SelectedFile
}

// Remove is a click on the remove-file control.
type Remove struct{}

// Analyze is a click on the analyze control.
type Analyze struct{}

// Elapsed is delivered when a scheduled stage of run Run fires.
type Elapsed struct {
	Run   uint64
	Stage Stage
}

func (OpenPicker) Name() string { return "open_picker" }
func (FileChosen) Name() string { return "file_chosen" }
func (DragOver) Name() string   { return "drag_over" }
func (DragLeave) Name() string  { return "drag_leave" }
func (Drop) Name() string       { return "drop" }
func (Remove) Name() string     { return "remove" }
func (Analyze) Name() string    { return "analyze" }
func (Elapsed) Name() string    { return "elapsed" }

func (OpenPicker) trigger() {}
func (FileChosen) trigger() {}
func (DragOver) trigger()   {}
func (DragLeave) trigger()  {}
func (Drop) trigger()       {}
func (Remove) trigger()     {}
func (Analyze) trigger()    {}
func (Elapsed) trigger()    {}

// EffectKind enumerates the side effects a transition can ask the host for
type EffectKind int

const (
	EffectOpenPicker EffectKind = iota
	EffectSyncInput
	EffectSchedule
	EffectCancel
	EffectScrollResults
)

// String returns the string representation of the effect kind
func (k EffectKind) String() string {
	switch k {
	case EffectOpenPicker:
		return "open_picker"
	case EffectSyncInput:
		return "sync_input"
	case EffectSchedule:
		return "schedule"
	case EffectCancel:
		return "cancel"
	case EffectScrollResults:
		return "scroll_results"
	default:
		return "unknown"
	}
}

// Effect is a side effect requested by a transition. Hosts interpret them.
type Effect struct {
	Kind  EffectKind
	Run   uint64
	Stage Stage
	Delay time.Duration
	File  *SelectedFile
}
