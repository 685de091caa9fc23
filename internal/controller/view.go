package controller

import (
	"fmt"
	"math"
)

// View is the set of presentation flags derived from a Snapshot
type View struct {
	DropZoneVisible  bool   `json:"drop_zone_visible" msgpack:"drop_zone_visible"`
	DropActive       bool   `json:"drop_active" msgpack:"drop_active"`
	FilePanelVisible bool   `json:"file_panel_visible" msgpack:"file_panel_visible"`
	FileName         string `json:"file_name,omitempty" msgpack:"file_name,omitempty"`
	FileSize         string `json:"file_size,omitempty" msgpack:"file_size,omitempty"`
	AnalyzeLabel     string `json:"analyze_label" msgpack:"analyze_label"`
	AnalyzeIcon      string `json:"analyze_icon" msgpack:"analyze_icon"`
	AnalyzeDisabled  bool   `json:"analyze_disabled" msgpack:"analyze_disabled"`
	AnalyzeBusy      bool   `json:"analyze_busy" msgpack:"analyze_busy"`
	ResultsVisible   bool   `json:"results_visible" msgpack:"results_visible"`
}

// Analyze control icon names
const (
	IconIdle = "calculator"
	IconBusy = "spinner"
	IconDone = "check"
)

// Render derives the view for s
func Render(s Snapshot, labels Labels) View {
	v := View{
		DropZoneVisible:  !s.HasFile(),
		DropActive:       s.DropActive && !s.HasFile(),
		FilePanelVisible: s.HasFile(),
		ResultsVisible:   s.ResultsVisible,
		AnalyzeDisabled:  s.Control != ControlIdle,
		AnalyzeBusy:      s.Control == ControlBusy,
	}
	if s.File != nil {
		v.FileName = s.File.Name
		v.FileSize = FormatSize(s.File.Size)
	}
	switch s.Control {
	case ControlBusy:
		v.AnalyzeLabel, v.AnalyzeIcon = labels.Busy, IconBusy
	case ControlDone:
		v.AnalyzeLabel, v.AnalyzeIcon = labels.Done, IconDone
	default:
		v.AnalyzeLabel, v.AnalyzeIcon = labels.Idle, IconIdle
	}
	return v
}

const sizeUnits = "KMGTPE"

// FormatSize renders a byte count with a binary unit suffix, e.g. "2.3 MB".
// Negative counts are treated as zero.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < 0 {
		bytes = 0
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(bytes) / float64(div)
	// 1023.95 and up would print as 1024.0 of the smaller unit
	if math.Round(value*10)/10 >= unit && exp < len(sizeUnits)-1 {
		value /= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", value, sizeUnits[exp])
}
