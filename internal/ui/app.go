package ui

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/DropPad/internal/config"
	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/inbox"
	"github.com/yildizm/DropPad/internal/logger"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Timings    controller.Timings
	Labels     controller.Labels
	StartDir   string
	ShowHidden bool

	// Inbox delivers drop-folder events; nil disables the drop folder
	Inbox    <-chan inbox.Event
	InboxDir string

	Logger *logger.Logger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(cfg Config) tea.Model {
	if cfg.Timings == (controller.Timings{}) {
		cfg.Timings = controller.DefaultTimings()
	}
	if cfg.Labels == (controller.Labels{}) {
		cfg.Labels = controller.DefaultLabels()
	}
	if cfg.StartDir == "" {
		cfg.StartDir = "."
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(defaultWidth, defaultHeight-headerHeight)
	vp.MouseWheelEnabled = true

	m := &model{
		cfg:      cfg,
		log:      log,
		styles:   GetStyles(),
		snap:     controller.Initial(),
		spinner:  spin,
		viewport: vp,
		width:    defaultWidth,
		height:   defaultHeight,
		regions:  map[string]region{},
		stat:     os.Stat,
	}
	m.view = controller.Render(m.snap, cfg.Labels)
	m.resize(defaultWidth, defaultHeight)
	return m
}

const (
	defaultWidth  = 80
	defaultHeight = 24
)

type model struct {
	cfg    Config
	log    *logger.Logger
	styles *Styles

	snap controller.Snapshot
	view controller.View

	picker     filepicker.Model
	pickerOpen bool
	spinner    spinner.Model
	viewport   viewport.Model

	width         int
	height        int
	regions       map[string]region
	hovering      bool
	scrollPending bool
	helpVisible   bool
	status        string
	errorMessage  string
	quitting      bool

	stat func(string) (os.FileInfo, error)
}

func (m *model) Init() tea.Cmd {
	return waitForInbox(m.cfg.Inbox)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if m.pickerOpen {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if m.pickerOpen {
			return m.handlePickerKey(msg)
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.pickerOpen {
			return m, nil
		}
		return m.handleMouse(msg)
	case stageMsg:
		return m, m.dispatch(controller.Elapsed{Run: msg.run, Stage: msg.stage})
	case spinner.TickMsg:
		if !m.view.AnalyzeBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	case inboxMsg:
		if msg.event.Kind == inbox.EventDrop {
			m.status = fmt.Sprintf("Picked up %s from the drop folder", msg.event.Name)
		}
		return m, tea.Batch(m.dispatch(msg.event.Trigger()), waitForInbox(m.cfg.Inbox))
	case inboxClosedMsg:
		m.status = "Drop folder is no longer watched"
		m.refresh()
		return m, nil
	}

	if m.pickerOpen {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		return m, m.dropPath(string(msg.Runes))
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.helpVisible = !m.helpVisible
		m.resize(m.width, m.height)
		return m, nil
	case "o", "enter":
		return m, m.dispatch(controller.OpenPicker{})
	case "x", "delete":
		m.status = ""
		return m, m.dispatch(controller.Remove{})
	case "a":
		return m, m.dispatch(controller.Analyze{})
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc", "q":
		// a dismissed dialog selects nothing
		m.closePicker()
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.closePicker()
		return m, tea.Batch(cmd, m.choosePath(path))
	}
	return m, cmd
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if tea.MouseEvent(msg).IsWheel() {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	hit := m.hitTest(msg.X, msg.Y)
	var cmds []tea.Cmd

	over := hit == controller.ElementDropZone
	if over != m.hovering {
		m.hovering = over
		if over {
			cmds = append(cmds, m.dispatch(controller.DragOver{HasFiles: true}))
		} else {
			cmds = append(cmds, m.dispatch(controller.DragLeave{}))
		}
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		switch hit {
		case controller.ElementDropZone:
			cmds = append(cmds, m.dispatch(controller.OpenPicker{}))
		case controller.ElementRemoveFile:
			cmds = append(cmds, m.dispatch(controller.Remove{}))
		case controller.ElementAnalyze:
			cmds = append(cmds, m.dispatch(controller.Analyze{}))
		}
	}
	return m, tea.Batch(cmds...)
}

// dispatch applies t to the snapshot and turns the effects into commands
func (m *model) dispatch(t controller.Trigger) tea.Cmd {
	prev := m.snap
	next, effects := controller.Transition(prev, t, m.cfg.Timings)
	m.snap = next
	m.view = controller.Render(next, m.cfg.Labels)

	if prev.State != next.State {
		m.log.DebugWithFields("transition %s -> %s", []logger.Field{logger.F("trigger", t.Name()), logger.Run(next.Run)}, prev.State, next.State)
	}

	var cmds []tea.Cmd
	for _, eff := range effects {
		if cmd := m.carryOut(eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if next.Control == controller.ControlBusy && prev.Control != controller.ControlBusy {
		cmds = append(cmds, m.spinner.Tick)
	}

	m.refresh()
	return tea.Batch(cmds...)
}

func (m *model) carryOut(eff controller.Effect) tea.Cmd {
	switch eff.Kind {
	case controller.EffectSchedule:
		return scheduleStage(eff)
	case controller.EffectCancel:
		m.log.DebugWithFields("run cancelled", []logger.Field{logger.Run(eff.Run)})
	case controller.EffectOpenPicker:
		return m.openPicker()
	case controller.EffectSyncInput:
		if eff.File != nil {
			m.log.DebugWithFields("drop accepted", []logger.Field{logger.File(eff.File.Name)})
		}
	case controller.EffectScrollResults:
		m.scrollPending = true
	}
	return nil
}

func (m *model) openPicker() tea.Cmd {
	fp := filepicker.New()
	fp.CurrentDirectory = config.ExpandPath(m.cfg.StartDir)
	fp.ShowHidden = m.cfg.ShowHidden
	fp.AutoHeight = true
	fp.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "back"))
	fp.Styles.Selected = fp.Styles.Selected.Foreground(m.styles.Theme.Primary)
	fp.Styles.Cursor = fp.Styles.Cursor.Foreground(m.styles.Theme.Primary)
	fp, _ = fp.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})

	m.picker = fp
	m.pickerOpen = true
	m.errorMessage = ""
	return m.picker.Init()
}

func (m *model) closePicker() {
	m.pickerOpen = false
	m.refresh()
}

// choosePath turns a picker selection into a FileChosen trigger
func (m *model) choosePath(path string) tea.Cmd {
	file, ok := m.describe(path)
	if !ok {
		return nil
	}
	return m.dispatch(controller.FileChosen{Files: []controller.SelectedFile{file}})
}

// dropPath turns a pasted path into a Drop trigger
func (m *model) dropPath(text string) tea.Cmd {
	path := normalizePastedPath(text)
	if path == "" {
		return nil
	}
	file, ok := m.describe(path)
	if !ok {
		return nil
	}
	return m.dispatch(controller.Drop{Files: []controller.SelectedFile{file}})
}

// describe reads name and size of a regular file; contents are never read
func (m *model) describe(path string) (controller.SelectedFile, bool) {
	info, err := m.stat(path)
	if err != nil {
		m.errorMessage = fmt.Sprintf("cannot use %s: %v", path, err)
		m.refresh()
		return controller.SelectedFile{}, false
	}
	if !info.Mode().IsRegular() {
		m.errorMessage = fmt.Sprintf("not a regular file: %s", path)
		m.refresh()
		return controller.SelectedFile{}, false
	}
	m.errorMessage = ""
	return controller.SelectedFile{Name: filepath.Base(path), Size: info.Size()}, true
}

// normalizePastedPath accepts what terminals paste when a file is dragged
// onto them: quoted paths, backslash-escaped spaces and file:// URLs.
func normalizePastedPath(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	if len(text) >= 2 {
		if (text[0] == '\'' && text[len(text)-1] == '\'') || (text[0] == '"' && text[len(text)-1] == '"') {
			text = text[1 : len(text)-1]
		}
	}
	if strings.HasPrefix(text, "file://") {
		if u, err := url.Parse(text); err == nil {
			text = u.Path
		}
	}
	text = strings.ReplaceAll(text, `\ `, " ")
	return config.ExpandPath(text)
}

func (m *model) resize(width, height int) {
	m.width, m.height = width, height
	m.refresh()
}

// refresh re-renders the page into the viewport
func (m *model) refresh() {
	m.viewport.Width = m.width
	h := m.height - headerHeight - footerHeight(m.renderFooter())
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h

	content, regions := m.renderPage()
	m.regions = regions
	m.viewport.SetContent(content)
	if m.scrollPending {
		m.viewport.GotoBottom()
		m.scrollPending = false
	}
	if !m.view.DropZoneVisible {
		m.hovering = false
	}
}
