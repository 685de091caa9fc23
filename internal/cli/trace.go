package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/DropPad/internal/config"
	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/formatter"
)

// traceOptions describes one scripted headless session
type traceOptions struct {
	via         string // picker or drop
	analyze     bool
	removeAfter time.Duration
	size        int64
	format      string
}

func newTraceCommand() *cobra.Command {
	opts := &traceOptions{size: -1}

	cmd := &cobra.Command{
		Use:   "trace FILE",
		Short: "Replay a session on a virtual clock and print every transition",
		Long: `Run the controller headless against FILE and print each transition.

Time is simulated, so the analysis stages appear instantly with the virtual
time they would fire at. Only the file name and size are used; the file is
never read.`,
		Example: `  droppad trace report.pdf --analyze
  droppad trace data.csv --via drop --analyze --remove-after 1s
  droppad trace missing.xlsx --size 2400000 --analyze --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			file, err := describeFile(args[0], opts.size)
			if err != nil {
				return err
			}
			f, err := formatter.New(opts.format, colorEnabled(cfg))
			if err != nil {
				return err
			}
			return runTrace(cmd.OutOrStdout(), cfg, file, opts, f)
		},
	}

	cmd.Flags().StringVar(&opts.via, "via", "picker", "how the file is selected (picker, drop)")
	cmd.Flags().BoolVarP(&opts.analyze, "analyze", "a", false, "click analyze once the file is selected")
	cmd.Flags().DurationVar(&opts.removeAfter, "remove-after", 0, "remove the file this long after analyze")
	cmd.Flags().Int64Var(&opts.size, "size", -1, "use this size instead of reading it from disk")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format (text, json)")

	return cmd
}

// describeFile stats path for its size unless size is given
func describeFile(path string, size int64) (controller.SelectedFile, error) {
	name := filepath.Base(path)
	if size >= 0 {
		return controller.SelectedFile{Name: name, Size: size}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return controller.SelectedFile{}, fmt.Errorf("cannot access file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return controller.SelectedFile{}, fmt.Errorf("not a regular file: %s", path)
	}
	return controller.SelectedFile{Name: name, Size: info.Size()}, nil
}

// runTrace drives a controller through the scripted steps and writes the
// formatted transitions to w
func runTrace(w io.Writer, cfg *config.Config, file controller.SelectedFile, opts *traceOptions, f formatter.Formatter) error {
	steps, err := traceSteps(cfg, file, opts)
	if err != nil {
		return err
	}
	out, err := f.Format(steps)
	if err != nil {
		return fmt.Errorf("failed to format trace: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func traceSteps(cfg *config.Config, file controller.SelectedFile, opts *traceOptions) ([]formatter.Step, error) {
	timings, labels := analysisSettings(cfg.Analysis)
	clock := controller.NewManualScheduler()

	var steps []formatter.Step
	ctrl := controller.Setup(nil,
		controller.WithScheduler(clock),
		controller.WithTimings(timings),
		controller.WithLabels(labels),
		controller.WithLogger(newLogger("trace")),
		controller.WithObserver(func(t controller.Trigger, out controller.Outcome) {
			name := t.Name()
			if e, ok := t.(controller.Elapsed); ok {
				name += " " + e.Stage.String()
			}
			steps = append(steps, formatter.Step{
				Index:    len(steps) + 1,
				At:       clock.Now(),
				Trigger:  name,
				Snapshot: out.Snapshot,
				View:     out.View,
				Effects:  out.Effects,
			})
		}),
	)
	defer ctrl.Close()

	files := []controller.SelectedFile{file}
	switch opts.via {
	case "picker":
		ctrl.Dispatch(controller.OpenPicker{})
		ctrl.Dispatch(controller.FileChosen{Files: files})
	case "drop":
		ctrl.Dispatch(controller.DragOver{HasFiles: true})
		ctrl.Dispatch(controller.Drop{Files: files})
	default:
		return nil, fmt.Errorf("invalid --via: %s (must be one of: picker, drop)", opts.via)
	}

	if !opts.analyze {
		return steps, nil
	}
	ctrl.Dispatch(controller.Analyze{})

	if opts.removeAfter > 0 {
		clock.Advance(opts.removeAfter)
		ctrl.Dispatch(controller.Remove{})
	}
	// run the clock past both stages so every pending task fires or is shown cancelled
	clock.Advance(timings.Reveal + timings.Reset)

	return steps, nil
}
