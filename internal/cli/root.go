package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yildizm/DropPad/internal/config"
	"github.com/yildizm/DropPad/internal/controller"
	"github.com/yildizm/DropPad/internal/emoji"
	"github.com/yildizm/DropPad/internal/logger"
	"github.com/yildizm/DropPad/internal/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
	noEmoji bool

	// loaded by loadConfig; consulted by the verbose checker
	activeConfig *config.Config
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	uiOpts := &uiOptions{}

	rootCmd := &cobra.Command{
		Use:   "droppad",
		Short: "Pick a file and run a quick analysis on it",
		Long: `DropPad lets you select a single file, by picking it, dropping it on the
terminal or saving it into a drop folder, and run an analysis over it.

Without a subcommand the terminal UI is started. Use "droppad serve" to open
the same page in a browser.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			emoji.SetEmojiDisabled(noEmoji)
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, uiOpts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	uiOpts.bind(rootCmd)

	rootCmd.AddCommand(newUICommand())
	rootCmd.AddCommand(newServeCommand(version))
	rootCmd.AddCommand(newTraceCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "DropPad %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// loadConfig loads the layered configuration and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noEmoji {
		cfg.Output.NoEmoji = true
	}
	if noColor {
		cfg.Output.ColorMode = "never"
	}
	emoji.SetEmojiDisabled(cfg.Output.NoEmoji)

	activeConfig = cfg
	return cfg, nil
}

// newLogger returns a component logger gated on the verbose flag or config
func newLogger(component string, opts ...logger.Option) *logger.Logger {
	return logger.NewWithCallback(component, isVerbose, opts...)
}

// Global helpers
func isVerbose() bool {
	return verbose || (activeConfig != nil && activeConfig.Output.Verbose)
}

// analysisSettings maps the analysis section onto the controller's stage
// timings and control captions
func analysisSettings(a config.AnalysisConfig) (controller.Timings, controller.Labels) {
	timings := controller.Timings{Reveal: a.RevealDelay, Reset: a.ResetDelay}
	labels := controller.Labels{Idle: a.Labels.Idle, Busy: a.Labels.Busy, Done: a.Labels.Done}
	return timings, labels.OrDefault()
}

func colorEnabled(cfg *config.Config) bool {
	switch cfg.Output.ColorMode {
	case "always":
		return true
	case "never":
		return false
	default:
		return !ui.IsColorDisabled()
	}
}
