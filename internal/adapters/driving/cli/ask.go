package cli

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guru-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and exit",
	Long: `Answer one question about the documents in the data directory.

The corpus is indexed, the question answered and the session ended. Use
--json for machine-readable output including the retrieved sources.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// askOutput is the --json shape of an answer.
type askOutput struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Sources  []sourceOutput `json:"sources"`
	Warning  string         `json:"warning,omitempty"`
}

type sourceOutput struct {
	Path    string  `json:"path"`
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
}

func init() {
	askCmd.Flags().Bool("json", false, "print the answer and its sources as JSON")
	askCmd.Flags().Bool("show-sources", false, "list the source files under the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	showSources, _ := cmd.Flags().GetBool("show-sources")
	question := strings.Join(args, " ")

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

	sess, err := svc.StartSession(ctx, dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.End(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("end session: %v", err)
		}
	}()

	res, err := sess.Ask(ctx, question)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toAskOutput(question, res, sess.Warning(), dir))
	}

	con := newConsole(cmd.OutOrStdout())
	if w := sess.Warning(); w != nil {
		con.println(con.warning.Render(w.Error()))
	}
	con.println(res.Answer.Text)
	if res.Warning != nil {
		con.println(con.warning.Render("Warning: " + res.Warning.Error()))
	}
	if showSources {
		for _, src := range sourcePaths(res.Answer.Sources, dir) {
			con.println(con.muted.Render("  source: " + src))
		}
	}
	return nil
}

func toAskOutput(question string, res domain.AskResult, sessionWarning error, root string) askOutput {
	out := askOutput{
		Question: question,
		Answer:   res.Answer.Text,
		Sources:  []sourceOutput{},
	}
	for _, hit := range res.Answer.Sources {
		if hit.Chunk.IsPlaceholder() {
			continue
		}
		out.Sources = append(out.Sources, sourceOutput{
			Path:    filesystem.DisplayPath(root, hit.Chunk.SourcePath),
			ChunkID: hit.Chunk.ID,
			Score:   hit.Score,
		})
	}

	var warnings []string
	if sessionWarning != nil {
		warnings = append(warnings, sessionWarning.Error())
	}
	if res.Warning != nil {
		warnings = append(warnings, res.Warning.Error())
	}
	out.Warning = strings.Join(warnings, "; ")
	return out
}
