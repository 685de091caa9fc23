package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/inbox"
)

// stageMsg is delivered when an analysis stage delay has elapsed. Ticks can
// not be cancelled, so a stale one is dropped by the run token in Transition.
type stageMsg struct {
	run   uint64
	stage controller.Stage
}

type inboxMsg struct {
	event inbox.Event
}

type inboxClosedMsg struct{}

func scheduleStage(eff controller.Effect) tea.Cmd {
	run, stage := eff.Run, eff.Stage
	return tea.Tick(eff.Delay, func(time.Time) tea.Msg {
		return stageMsg{run: run, stage: stage}
	})
}

func waitForInbox(events <-chan inbox.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return inboxClosedMsg{}
		}
		return inboxMsg{event: ev}
	}
}
