// Package formatter renders controller traces for the trace command.
package formatter

import (
	"fmt"
	"time"

	"github.com/yildizm/DropPad/internal/controller"
)

// Step is one trigger applied during a trace, with the state it produced
type Step struct {
	Index    int
	At       time.Duration // virtual time of the trigger
	Trigger  string
	Snapshot controller.Snapshot
	View     controller.View
	Effects  []controller.Effect
}

// Formatter defines the interface for trace output
type Formatter interface {
	Format(steps []Step) ([]byte, error)
}

// New returns the formatter for format: text or json
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "text", "terminal":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (must be one of: text, json)", format)
	}
}
