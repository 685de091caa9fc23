package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/DropPad/internal/controller"
)

// terminalFormatter formats a trace as plain text trees using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = true
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(steps []Step) ([]byte, error) {
	var b strings.Builder
	for i, s := range steps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderStep(s, f.opts))
	}
	return []byte(b.String()), nil
}

// renderStep draws one step as a tree: the state, what the page shows and
// the analyze control face
func renderStep(s Step, opts *termfmt.TerminalOptions) string {
	header := fmt.Sprintf("%s #%d %s @ %s\n", termfmt.GetEmoji("info", opts), s.Index, s.Trigger, s.At)
	return header + termfmt.TreeViewWithOptions(stepItems(s.Snapshot, s.View, s.Effects), opts) + "\n"
}

func stepItems(snapshot controller.Snapshot, view controller.View, effects []controller.Effect) []termfmt.TreeItem {
	file := "none"
	if view.FilePanelVisible {
		file = fmt.Sprintf("%s (%s)", view.FileName, view.FileSize)
	}

	items := []termfmt.TreeItem{
		{Label: "State", Value: fmt.Sprintf("%s (run %d)", snapshot.State, snapshot.Run)},
		{Label: "Drop zone", Value: dropZone(view)},
		{Label: "File", Value: file},
		{Label: "Analyze", Value: analyzeControl(view)},
		{Label: "Results", Value: visibility(view.ResultsVisible)},
	}
	if names := effectNames(effects); len(names) > 0 {
		items = append(items, termfmt.TreeItem{Label: "Effects", Value: strings.Join(names, ", ")})
	}
	items[len(items)-1].Last = true
	return items
}

func dropZone(v controller.View) string {
	switch {
	case !v.DropZoneVisible:
		return "hidden"
	case v.DropActive:
		return "visible, drag over"
	default:
		return "visible"
	}
}

func analyzeControl(v controller.View) string {
	state := "enabled"
	if v.AnalyzeDisabled {
		state = "disabled"
	}
	return fmt.Sprintf("[%s] %s, %s", v.AnalyzeIcon, v.AnalyzeLabel, state)
}

func visibility(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}
