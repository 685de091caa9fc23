package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/emoji"
)

const (
	headerHeight = 2
	pageMargin   = 2
	maxPageWidth = 72
)

// region is the on-page box of an element, in viewport content coordinates
type region struct {
	top, left     int
	width, height int
}

func (r region) contains(x, y int) bool {
	return x >= r.left && x < r.left+r.width && y >= r.top && y < r.top+r.height
}

// hitTest returns the element ID under the screen cell x, y
func (m *model) hitTest(x, y int) string {
	if y < headerHeight || y >= headerHeight+m.viewport.Height {
		return ""
	}
	row := y - headerHeight + m.viewport.YOffset
	for id, r := range m.regions {
		if r.contains(x, row) {
			return id
		}
	}
	return ""
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	if m.pickerOpen {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(),
			m.styles.Subtitle.Render("Choose a file: enter selects, esc cancels"),
			m.picker.View(),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m *model) renderHeader() string {
	title := m.styles.Title.Render(emoji.GetEmoji("target") + " DropPad")
	subtitle := m.styles.Subtitle.Render("select a file, then analyze it")
	return lipgloss.JoinHorizontal(lipgloss.Top, title, subtitle) + "\n"
}

func (m *model) pageWidth() int {
	w := m.width - 2*pageMargin
	if w > maxPageWidth {
		w = maxPageWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// renderPage lays out the page sections and records where the interactive
// elements ended up.
func (m *model) renderPage() (string, map[string]region) {
	var blocks []string
	regions := map[string]region{}
	line := 0

	add := func(id, block string) {
		h := lipgloss.Height(block)
		if id != "" {
			regions[id] = region{top: line, left: pageMargin, width: lipgloss.Width(block), height: h}
		}
		blocks = append(blocks, block)
		line += h
	}

	width := m.pageWidth()

	if m.view.DropZoneVisible {
		add(controller.ElementDropZone, m.renderDropZone(width))
		add("", "")
	}
	if m.view.FilePanelVisible {
		add(controller.ElementSelectedFile, m.renderFilePanel(width))
		add(controller.ElementRemoveFile, m.styles.RemoveButton.Render(emoji.GetEmoji("remove")+" Remove file (x)"))
		add("", "")
	}

	add(controller.ElementAnalyze, m.renderAnalyzeButton())

	if m.view.ResultsVisible {
		add("", "")
		add(controller.ElementResults, m.renderResults(width))
	}

	page := lipgloss.NewStyle().MarginLeft(pageMargin).Render(strings.Join(blocks, "\n"))
	return page, regions
}

func (m *model) renderDropZone(width int) string {
	lines := []string{
		emoji.GetEmoji("upload") + "  Drop a file here",
		"paste a path, or press o / click to browse",
	}
	if m.cfg.InboxDir != "" {
		dir := truncate.StringWithTail(m.cfg.InboxDir, uint(max(width-16, 8)), "...")
		lines = append(lines, m.styles.Muted.Render(emoji.GetEmoji("inbox")+" watching "+dir))
	}

	style := m.styles.DropZone
	if m.view.DropActive {
		style = m.styles.DropZoneActive
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *model) renderFilePanel(width int) string {
	name := truncate.StringWithTail(m.view.FileName, uint(max(width-8, 8)), "...")
	body := emoji.GetEmoji("file") + " " + m.styles.FileName.Render(name) + "\n" +
		m.styles.Muted.Render(m.view.FileSize)
	return m.styles.FilePanel.Width(width).Render(body)
}

func (m *model) renderAnalyzeButton() string {
	var icon string
	style := m.styles.Button
	switch m.view.AnalyzeIcon {
	case controller.IconBusy:
		icon = m.spinner.View()
		style = m.styles.ButtonBusy
	case controller.IconDone:
		icon = emoji.GetEmoji(controller.IconDone)
		style = m.styles.ButtonDone
	default:
		icon = emoji.GetEmoji(controller.IconIdle)
		if !m.view.FilePanelVisible {
			style = m.styles.ButtonDisabled
		}
	}
	return style.Render(icon + " " + m.view.AnalyzeLabel)
}

// resultRows is the fixed content of the results panel
var resultRows = [][2]string{
	{"Total investment", "n/a"},
	{"Max profit", "n/a"},
	{"ROI", "n/a"},
	{"Distribution", "n/a"},
}

// renderResults draws the results panel. It never depends on the selected
// file.
func (m *model) renderResults(width int) string {
	var b strings.Builder
	b.WriteString(m.styles.ResultsHeader.Render(emoji.GetEmoji("results") + " Analysis results"))
	b.WriteString("\n\n")
	for _, row := range resultRows {
		label := m.styles.Muted.Render(padRight(row[0], 18))
		value := truncate.StringWithTail(row[1], uint(max(width-24, 8)), "...")
		b.WriteString(label + value + "\n")
	}
	b.WriteString("\n" + m.styles.Muted.Render("Figures appear here once the file is processed."))
	return m.styles.Results.Width(width).Render(b.String())
}

func (m *model) renderFooter() string {
	var lines []string
	if m.errorMessage != "" {
		lines = append(lines, m.styles.Error.Render(emoji.GetEmoji("error")+" "+m.errorMessage))
	} else if m.status != "" {
		lines = append(lines, m.styles.Muted.Render(m.status))
	}

	if m.helpVisible {
		lines = append(lines, m.styles.Help.Render(strings.Join([]string{
			"o / enter / click   open the file picker",
			"paste a path        drop that file",
			"x / delete          remove the selected file",
			"a                   analyze",
			"up / down / wheel   scroll",
			"?                   hide help",
			"q / ctrl+c          quit",
		}, "\n")))
	} else {
		lines = append(lines, m.styles.Help.Render("o open  x remove  a analyze  ? help  q quit"))
	}
	return strings.Join(lines, "\n")
}

func footerHeight(footer string) int {
	return lipgloss.Height(footer)
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
