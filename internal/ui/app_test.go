package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/inbox"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	teaModel, ok := New(Config{StartDir: t.TempDir()}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	teaModel.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return teaModel
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func paste(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text), Paste: true}
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// screenPoint returns a screen cell inside the element's region
func screenPoint(t *testing.T, m *model, id string) (int, int) {
	t.Helper()
	r, ok := m.regions[id]
	if !ok {
		t.Fatalf("element %s is not on the page", id)
	}
	return r.left + 1, headerHeight + r.top - m.viewport.YOffset + r.height/2
}

func TestInitialPageShowsDropZone(t *testing.T) {
	m := newTestModel(t)

	if !m.view.DropZoneVisible || m.view.FilePanelVisible || m.view.ResultsVisible {
		t.Fatalf("unexpected initial view: %+v", m.view)
	}
	out := m.View()
	if !strings.Contains(out, "Drop a file here") {
		t.Fatalf("drop zone not rendered:\n%s", out)
	}
	if !strings.Contains(out, "Analyze data") {
		t.Fatalf("analyze control not rendered:\n%s", out)
	}
}

func TestPastedPathDropsFile(t *testing.T) {
	m := newTestModel(t)
	path := writeFile(t, "report.pdf", 2048)

	m.Update(paste("'" + path + "'\n"))

	if m.snap.State != controller.StateFileSelected {
		t.Fatalf("expected file selected, got %s", m.snap.State)
	}
	if m.view.FileName != "report.pdf" || m.view.FileSize != "2.0 KB" {
		t.Fatalf("unexpected file panel: %+v", m.view)
	}
	if strings.Contains(m.View(), "Drop a file here") {
		t.Fatal("drop zone should be hidden after a drop")
	}
}

func TestPastedMissingPathReportsError(t *testing.T) {
	m := newTestModel(t)
	m.Update(paste(filepath.Join(t.TempDir(), "nope.csv")))

	if m.snap.State != controller.StateEmpty {
		t.Fatalf("state should not change, got %s", m.snap.State)
	}
	if m.errorMessage == "" {
		t.Fatal("expected an error message for a missing file")
	}
}

func TestNormalizePastedPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  /tmp/a.csv \n", "/tmp/a.csv"},
		{`"/tmp/my file.csv"`, "/tmp/my file.csv"},
		{`/tmp/my\ file.csv`, "/tmp/my file.csv"},
		{"file:///tmp/my%20file.csv", "/tmp/my file.csv"},
		{"/tmp/first.csv\n/tmp/second.csv", "/tmp/first.csv"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizePastedPath(tt.in); got != tt.want {
			t.Errorf("normalizePastedPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnalyzeFlowRevealsResults(t *testing.T) {
	m := newTestModel(t)
	m.Update(paste(writeFile(t, "data.xlsx", 10)))

	_, cmd := m.Update(press("a"))
	if cmd == nil {
		t.Fatal("analyze should schedule the reveal stage")
	}
	if m.snap.State != controller.StateAnalyzing || !m.view.AnalyzeBusy {
		t.Fatalf("expected analyzing/busy, got %+v", m.snap)
	}
	if !strings.Contains(m.View(), "Processing...") {
		t.Fatal("busy label not rendered")
	}

	run := m.snap.Run
	m.Update(stageMsg{run: run, stage: controller.StageReveal})
	if !m.view.ResultsVisible || m.view.AnalyzeLabel != "Analysis complete" {
		t.Fatalf("expected results and done label, got %+v", m.view)
	}
	if !m.viewport.AtBottom() {
		t.Error("results should be scrolled into view")
	}
	if !strings.Contains(m.viewport.View(), "Analysis results") {
		t.Fatal("results panel should be visible in the viewport")
	}

	m.Update(stageMsg{run: run, stage: controller.StageReset})
	if m.view.AnalyzeDisabled || m.view.AnalyzeLabel != "Analyze data" || !m.view.ResultsVisible {
		t.Fatalf("control should be idle with results kept, got %+v", m.view)
	}
}

func TestStaleStageAfterRemoveIsIgnored(t *testing.T) {
	m := newTestModel(t)
	m.Update(paste(writeFile(t, "data.xlsx", 10)))
	m.Update(press("a"))
	run := m.snap.Run

	m.Update(press("x"))
	m.Update(paste(writeFile(t, "other.csv", 5)))
	m.Update(stageMsg{run: run, stage: controller.StageReveal})

	if m.view.ResultsVisible {
		t.Fatal("a stage from a removed run must not reveal results")
	}
	if m.view.FileName != "other.csv" {
		t.Fatalf("expected the new selection to stay, got %q", m.view.FileName)
	}
}

func TestAnalyzeWithoutFileDoesNothing(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(press("a"))
	if cmd != nil {
		t.Fatalf("analyze without a file should not schedule anything, got %T", cmd)
	}
	if m.snap != controller.Initial() {
		t.Fatalf("state changed: %+v", m.snap)
	}
}

func TestMouseHoverAndClickOnDropZone(t *testing.T) {
	m := newTestModel(t)
	x, y := screenPoint(t, m, controller.ElementDropZone)

	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})
	if !m.view.DropActive {
		t.Fatal("hovering the drop zone should mark it active")
	}

	m.Update(tea.MouseMsg{X: x, Y: 0, Action: tea.MouseActionMotion})
	if m.view.DropActive {
		t.Fatal("leaving the drop zone should clear the marker")
	}

	_, cmd := m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.pickerOpen {
		t.Fatal("clicking the drop zone should open the picker")
	}
	if cmd == nil {
		t.Fatal("opening the picker should read the start directory")
	}
}

func TestPickerCancelKeepsState(t *testing.T) {
	m := newTestModel(t)
	m.Update(press("o"))
	if !m.pickerOpen {
		t.Fatal("o should open the picker")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.pickerOpen {
		t.Fatal("esc should dismiss the picker")
	}
	if m.snap != controller.Initial() {
		t.Fatalf("dismissing the picker should not change state: %+v", m.snap)
	}
}

func TestChoosePathSelectsFile(t *testing.T) {
	m := newTestModel(t)
	m.choosePath(writeFile(t, "budget.xlsx", 52_000))

	if m.snap.State != controller.StateFileSelected || m.view.FileSize != "50.8 KB" {
		t.Fatalf("unexpected selection: %+v", m.view)
	}
}

func TestClickButtons(t *testing.T) {
	m := newTestModel(t)
	m.Update(paste(writeFile(t, "a.csv", 1)))

	x, y := screenPoint(t, m, controller.ElementAnalyze)
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.snap.State != controller.StateAnalyzing {
		t.Fatalf("clicking analyze should start a run, got %s", m.snap.State)
	}

	x, y = screenPoint(t, m, controller.ElementRemoveFile)
	m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.snap.State != controller.StateEmpty {
		t.Fatalf("clicking remove should clear the selection, got %s", m.snap.State)
	}
}

func TestInboxEventsDriveTheZone(t *testing.T) {
	events := make(chan inbox.Event, 1)
	m, ok := New(Config{Inbox: events, InboxDir: "/tmp/drop"}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", m)
	}
	if m.Init() == nil {
		t.Fatal("init should start listening to the drop folder")
	}

	m.Update(inboxMsg{event: inbox.Event{Kind: inbox.EventDragOver, Name: "x.part"}})
	if !m.view.DropActive {
		t.Fatal("a partial download should highlight the zone")
	}

	_, cmd := m.Update(inboxMsg{event: inbox.Event{Kind: inbox.EventDrop, Name: "x.csv", Size: 3}})
	if m.snap.State != controller.StateFileSelected || m.view.FileName != "x.csv" {
		t.Fatalf("drop folder file should be selected, got %+v", m.view)
	}
	if cmd == nil {
		t.Fatal("model should keep listening after an event")
	}
}

func TestHelpToggleAndQuit(t *testing.T) {
	m := newTestModel(t)
	before := m.viewport.Height

	m.Update(press("?"))
	if !m.helpVisible || m.viewport.Height >= before {
		t.Fatalf("help should take space from the page (before=%d after=%d)", before, m.viewport.Height)
	}

	_, cmd := m.Update(press("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected a quit message")
	}
}

func TestResultsPanelIgnoresSelectedFile(t *testing.T) {
	render := func(name string) string {
		m := newTestModel(t)
		m.Update(paste(writeFile(t, name, 2048)))
		m.Update(press("a"))
		m.Update(stageMsg{run: m.snap.Run, stage: controller.StageReveal})
		return m.renderResults(80)
	}

	first := render("budget.xlsx")
	if strings.Contains(first, "budget.xlsx") || strings.Contains(first, "2.0 KB") {
		t.Fatalf("results panel should not mention the file:\n%s", first)
	}
	if second := render("other.csv"); second != first {
		t.Fatalf("results panel changed with the file:\n%s\nvs\n%s", first, second)
	}
}
