package cli

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/messages"
)

var consoleCmd = &cobra.Command{
	Use:   "console [question]",
	Short: "Launch the interactive terminal console",
	Long: `Launch the interactive console for asking questions and browsing
the stored documents.

An optional question is asked as soon as the console opens.

Controls:
  ↑/k, ↓/j - Navigate sources and documents
  Enter    - Ask / Select
  1-9      - Ask a follow-up question
  n        - New question
  Esc      - Back
  Ctrl+C   - Quit`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// buildConsole creates the console app from the injected services.
func buildConsole() (*tui.App, error) {
	if queryService == nil {
		return nil, errors.New("query service not configured")
	}

	ports := tui.NewPorts(queryService, nil)
	if documentReader != nil {
		ports.Documents = documentReader
	}
	return tui.NewApp(ports)
}

func runConsole(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Panic in console: %v\nStack trace:\n%s\n", r, debug.Stack())
			err = fmt.Errorf("console panicked: %v", r)
		}
	}()

	app, err := buildConsole()
	if err != nil {
		return err
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if question := strings.TrimSpace(strings.Join(args, " ")); question != "" {
		go p.Send(messages.AskRequested{Query: question})
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}
