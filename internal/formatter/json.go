package formatter

import (
	"encoding/json"

	"github.com/yildizm/DropPad/internal/controller"
)

// jsonFormatter formats a trace as a JSON array
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// StepOutput is the JSON form of a Step
type StepOutput struct {
	Step    int             `json:"step"`
	AtMs    int64           `json:"at_ms"`
	Trigger string          `json:"trigger"`
	State   string          `json:"state"`
	Control string          `json:"control"`
	Run     uint64          `json:"run"`
	View    controller.View `json:"view"`
	Effects []string        `json:"effects,omitempty"`
}

func (f *jsonFormatter) Format(steps []Step) ([]byte, error) {
	out := make([]StepOutput, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepOutput{
			Step:    s.Index,
			AtMs:    s.At.Milliseconds(),
			Trigger: s.Trigger,
			State:   s.Snapshot.State.String(),
			Control: s.Snapshot.Control.String(),
			Run:     s.Snapshot.Run,
			View:    s.View,
			Effects: effectNames(s.Effects),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

func effectNames(effects []controller.Effect) []string {
	if len(effects) == 0 {
		return nil
	}
	names := make([]string, 0, len(effects))
	for _, eff := range effects {
		name := eff.Kind.String()
		if eff.Kind == controller.EffectSchedule {
			name += " " + eff.Stage.String() + " in " + eff.Delay.String()
		}
		names = append(names, name)
	}
	return names
}
