package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/yildizm/DropPad/internal/config"
	"github.com/yildizm/DropPad/internal/inbox"
	"github.com/yildizm/DropPad/internal/logger"
	"github.com/yildizm/DropPad/internal/ui"
)

// uiOptions are the flags that override the ui and inbox config sections
type uiOptions struct {
	inboxDir    string
	noInbox     bool
	noAltScreen bool
	noMouse     bool
	startDir    string
	theme       string
}

func (o *uiOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.inboxDir, "inbox", "", "watch this drop folder for new files")
	cmd.Flags().BoolVar(&o.noInbox, "no-inbox", false, "do not watch the drop folder")
	cmd.Flags().BoolVar(&o.noAltScreen, "no-alt-screen", false, "render inline instead of on the alternate screen")
	cmd.Flags().BoolVar(&o.noMouse, "no-mouse", false, "disable mouse support")
	cmd.Flags().StringVar(&o.startDir, "start-dir", "", "directory the file picker opens in")
	cmd.Flags().StringVar(&o.theme, "theme", "", "color theme ("+strings.Join(ui.GetAvailableThemes(), ", ")+")")
}

// apply copies the flags that were set onto cfg
func (o *uiOptions) apply(cfg *config.Config) {
	if o.inboxDir != "" {
		cfg.Inbox.Enabled = true
		cfg.Inbox.Dir = o.inboxDir
	}
	if o.noInbox {
		cfg.Inbox.Enabled = false
	}
	if o.noAltScreen {
		cfg.UI.AltScreen = false
	}
	if o.noMouse {
		cfg.UI.Mouse = false
	}
	if o.startDir != "" {
		cfg.UI.StartDir = o.startDir
	}
	if o.theme != "" {
		cfg.UI.Theme = o.theme
	}
}

func newUICommand() *cobra.Command {
	opts := &uiOptions{}
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the terminal UI",
		Long: `Start the interactive terminal UI.

Pick a file with the file browser (o or click the drop zone), paste or drag a
path onto the terminal, or save a file into the drop folder. Press a to
analyze and ? for help.`,
		Example: `  droppad ui
  droppad ui --inbox ~/Downloads
  droppad ui --no-alt-screen --theme minimal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func runUI(cmd *cobra.Command, opts *uiOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !ui.SetThemeByName(cfg.UI.Theme) {
		return fmt.Errorf("unknown theme: %s (available: %s)", cfg.UI.Theme, strings.Join(ui.GetAvailableThemes(), ", "))
	}
	if !colorEnabled(cfg) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	// the program owns the terminal, so log lines go to a file or nowhere
	logOut, closeLog, err := openLogFile(cfg.UI.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	log := newLogger("ui", logger.WithWriter(logOut))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	timings, labels := analysisSettings(cfg.Analysis)
	appCfg := ui.Config{
		Timings:    timings,
		Labels:     labels,
		StartDir:   cfg.UI.StartDir,
		ShowHidden: cfg.UI.ShowHidden,
		Logger:     log,
	}

	if cfg.Inbox.Enabled {
		watcher, err := startInbox(ctx, cfg.Inbox, log.WithComponent("inbox"))
		if err != nil {
			return err
		}
		defer func() {
			if err := watcher.Close(); err != nil {
				log.Warn("failed to close drop folder watcher: %v", err)
			}
		}()
		appCfg.Inbox = watcher.Events()
		appCfg.InboxDir = watcher.Dir()
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		programOpts = append(programOpts, tea.WithMouseAllMotion())
	}

	p := tea.NewProgram(ui.New(appCfg), programOpts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

// startInbox creates the drop folder when missing and starts watching it
func startInbox(ctx context.Context, cfg config.InboxConfig, log *logger.Logger) (*inbox.Watcher, error) {
	dir := config.ExpandPath(cfg.Dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create drop folder %s: %w", dir, err)
	}

	watcher, err := inbox.Watch(ctx, dir, inbox.Options{
		PartialSuffixes: cfg.PartialSuffixes,
		SettleDelay:     cfg.SettleDelay,
		Logger:          log,
	})
	if err != nil {
		return nil, err
	}
	log.Info("watching drop folder %s", dir)
	return watcher, nil
}

func openLogFile(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	// #nosec G304 - path comes from the user's own config
	f, err := os.OpenFile(config.ExpandPath(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
