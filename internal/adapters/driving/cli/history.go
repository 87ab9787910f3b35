package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List past chat sessions or show one transcript",
	Long: `List recent chat sessions, or print the transcript of one session.

Transcripts are only kept when transcript.enabled is true.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of sessions to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := app(cmd)
	if err != nil {
		return err
	}
	if a.History == nil {
		return errors.New("transcripts are disabled (set transcript.enabled = true)")
	}

	ctx := cmd.Context()

	if len(args) == 1 {
		turns, err := a.History.Turns(ctx, args[0])
		if err != nil {
			return err
		}
		for _, t := range turns {
			cmd.Printf("[%d] %s\n", t.Seq, t.AskedAt.Local().Format(time.DateTime))
			cmd.Printf("Q: %s\n", t.Question)
			cmd.Printf("A: %s\n\n", t.Answer)
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	sessions, err := a.History.Sessions(ctx, limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		cmd.Println("No sessions recorded.")
		return nil
	}

	for _, s := range sessions {
		ended := "running"
		if !s.EndedAt.IsZero() {
			ended = s.EndedAt.Local().Format(time.DateTime)
		}
		cmd.Printf("%s  %s -> %s  %s\n", s.ID, s.StartedAt.Local().Format(time.DateTime), ended, s.CorpusDirectory)
		if !s.Summary.IsEmpty() {
			cmd.Printf("    %s\n", s.Summary)
		}
	}
	return nil
}
