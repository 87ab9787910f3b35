package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/guru-cli/internal/core/services"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about the documents in the data directory",
	Long: `Start a conversation about the documents in the data directory.

The corpus is loaded and indexed once, then each question is answered from
the most relevant chunks. Follow-up questions can refer to earlier turns.
Type EXIT to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Bool("show-sources", false, "list the source files under each answer")
	chatCmd.Flags().Bool("watch", false, "report changes to the data directory during the chat")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	showSources, _ := cmd.Flags().GetBool("show-sources")
	watch, _ := cmd.Flags().GetBool("watch")

	a, err := app(cmd)
	if err != nil {
		return err
	}
	svc, err := a.sessionService()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	dir := a.Config.CorpusDirectory()
	con := newConsole(cmd.OutOrStdout())

	sess, err := svc.StartSession(ctx, dir)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer func() {
		if err := sess.End(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("end session: %v", err)
		}
	}()

	con.intro(sess.Warning())

	if watch && a.Watch != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		changes, err := a.Watch(dir).Watch(watchCtx)
		if err != nil {
			logger.Warn("watch %s: %v", dir, err)
		} else {
			go func() {
				for change := range changes {
					con.notice(change, dir)
				}
			}()
		}
	}

	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	reader := bufio.NewReader(in)
	for {
		if interactive {
			con.askPrompt()
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		eof := err != nil

		question := strings.TrimSpace(line)
		if services.IsExit(question) || (eof && question == "") {
			break
		}
		if question != "" {
			if !interactive {
				con.println(con.prompt.Render(prompt) + question)
			}
			res, err := sess.Ask(ctx, question)
			if err != nil {
				return err
			}
			con.answer(res, dir, showSources)
		}
		if eof {
			break
		}
	}

	con.println()
	con.println(farewell)
	con.println()
	return nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
