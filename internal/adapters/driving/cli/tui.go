package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for guru.

The TUI runs the same conversation as "guru chat" in a full-screen view
with a scrollable transcript.

Controls:
  Enter       - Send message
  PgUp/PgDn   - Scroll transcript
  Ctrl+S      - Toggle sources
  F1          - Toggle help
  Ctrl+C      - Quit (or type EXIT)`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().Bool("show-sources", false, "start with sources listed under each answer")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	showSources, _ := cmd.Flags().GetBool("show-sources")

	a, err := app(cmd)
	if err != nil {
		return err
	}
	svc, err := a.sessionService()
	if err != nil {
		return err
	}

	ports := &tui.Ports{
		Sessions:        svc,
		CorpusDirectory: a.Config.CorpusDirectory(),
		ShowSources:     showSources,
	}

	ui, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	ui.WithContext(cmd.Context())

	runErr := ui.Run()

	// The program can also stop on a signal before the session is ended.
	if sess := ui.Session(); sess != nil && sess.State() != domain.SessionTerminated {
		if err := sess.End(context.WithoutCancel(cmd.Context())); err != nil {
			logger.Warn("end session: %v", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}

	cmd.Println(farewell)
	return nil
}
