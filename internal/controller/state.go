package controller

import "time"

// State represents where the upload/analyze flow currently is
type State int

const (
	StateEmpty State = iota
	StateFileSelected
	StateAnalyzing
	StateAnalyzed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFileSelected:
		return "file_selected"
	case StateAnalyzing:
		return "analyzing"
	case StateAnalyzed:
		return "analyzed"
	default:
		return "unknown"
	}
}

// Control is the face the analyze control currently shows
type Control int

const (
	ControlIdle Control = iota
	ControlBusy
	ControlDone
)

// String returns the string representation of the control face
func (c Control) String() string {
	switch c {
	case ControlIdle:
		return "idle"
	case ControlBusy:
		return "busy"
	case ControlDone:
		return "done"
	default:
		return "unknown"
	}
}

// Stage identifies one of the two delayed steps of an analysis run
type Stage int

const (
	// StageReveal shows the results panel once the analyzing delay elapses.
	StageReveal Stage = iota
	// StageReset returns the analyze control to its idle face.
	StageReset
)

// String returns the string representation of the stage
func (s Stage) String() string {
	if s == StageReveal {
		return "reveal"
	}
	return "reset"
}

// Presentation element identifiers the controller binds to.
const (
	ElementDropZone     = "drop-zone"
	ElementFileInput    = "file-input"
	ElementSelectedFile = "selected-file"
	ElementFileName     = "file-name"
	ElementFileSize     = "file-size"
	ElementRemoveFile   = "remove-file"
	ElementAnalyze      = "analyze-btn"
	ElementResults      = "results-section"
)

// SelectedFile is the file captured from the picker or a drop.
// Only metadata is kept; contents are never read.
type SelectedFile struct {
	Name string `json:"name" msgpack:"name"`
	Size int64  `json:"size" msgpack:"size"`
}

// Snapshot is the complete controller state. Every trigger is applied to a
// snapshot and produces a new one.
type Snapshot struct {
	State          State
	File           *SelectedFile
	DropActive     bool
	Control        Control
	ResultsVisible bool

	// Run identifies the current analysis run. Scheduled stages carry the
	// run they were started for and are ignored once it is superseded.
	Run uint64
}

// Initial returns the snapshot shown right after setup
func Initial() Snapshot {
	return Snapshot{State: StateEmpty, Control: ControlIdle}
}

// HasFile reports whether a file is currently selected
func (s Snapshot) HasFile() bool {
	return s.File != nil
}

// runLive reports whether stages of the current run may still be pending
func (s Snapshot) runLive() bool {
	return s.State == StateAnalyzing || s.State == StateAnalyzed
}

// Timings holds the two fixed delays of the fake analysis
type Timings struct {
	Reveal time.Duration `yaml:"reveal_delay" json:"reveal_delay"`
	Reset  time.Duration `yaml:"reset_delay" json:"reset_delay"`
}

// DefaultTimings returns the stock 2s/3s delays
func DefaultTimings() Timings {
	return Timings{
		Reveal: 2000 * time.Millisecond,
		Reset:  3000 * time.Millisecond,
	}
}

// Labels holds the analyze control captions for each face
type Labels struct {
	Idle string
	Busy string
	Done string
}

// OrDefault fills empty captions with the stock ones
func (l Labels) OrDefault() Labels {
	def := DefaultLabels()
	if l.Idle == "" {
		l.Idle = def.Idle
	}
	if l.Busy == "" {
		l.Busy = def.Busy
	}
	if l.Done == "" {
		l.Done = def.Done
	}
	return l
}

// DefaultLabels returns the stock captions
func DefaultLabels() Labels {
	return Labels{
		Idle: "Analyze data",
		Busy: "Processing...",
		Done: "Analysis complete",
	}
}
