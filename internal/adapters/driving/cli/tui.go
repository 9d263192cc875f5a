package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for sercha-ask.

Search results and answers are shown side by side with the query input.
Answers stream in as they are generated.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Ask / Select
  Tab      - Cycle search mode
  [ / ]    - Previous / next results page
  Esc      - Stop answer / Back
  ctrl+c   - Quit

With --verbose, log output is written to sercha-ask-tui.log in the
temporary directory.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		NewQuerySession: services.NewQuerySession,
		Settings:        services.Settings,
		Documents:       services.Documents,
		History:         services.History,
		WatchConfig:     services.WatchConfig,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	defer app.Close()

	restore, err := redirectLogs()
	if err != nil {
		return err
	}
	defer restore()

	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// redirectLogs keeps log lines off the alternate screen, writing them
// to a file in verbose mode and discarding them otherwise.
func redirectLogs() (func(), error) {
	if !logger.IsVerbose() {
		logger.SetOutput(io.Discard)
		return func() { logger.SetOutput(os.Stderr) }, nil
	}

	path := filepath.Join(os.TempDir(), "sercha-ask-tui.log")
	f, err := tea.LogToFile(path, "sercha-ask")
	if err != nil {
		return nil, fmt.Errorf("opening TUI log: %w", err)
	}
	logger.SetOutput(f)
	return func() {
		logger.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
