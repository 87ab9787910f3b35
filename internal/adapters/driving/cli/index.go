package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guru-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/services"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Report how the data directory would be indexed",
	Long: `Load and chunk the data directory and print corpus statistics.

No model is called unless --embed is given, in which case the chunks are
also embedded and the resulting index is described.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

// indexedSession is implemented by sessions that expose their index.
type indexedSession interface {
	Index() *services.Index
}

func init() {
	indexCmd.Flags().Bool("embed", false, "also embed the chunks and build the index")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	embed, _ := cmd.Flags().GetBool("embed")

	a, err := app(cmd)
	if err != nil {
		return err
	}
	if err := a.Config.ValidateCorpus(); err != nil {
		return err
	}

	ctx := cmd.Context()
	dir := a.Config.CorpusDirectory()

	stats, err := a.Corpus.Inspect(ctx, dir)
	if err != nil {
		return err
	}
	printStats(cmd, stats)

	if !embed {
		return nil
	}

	svc, err := a.sessionService()
	if err != nil {
		return err
	}
	sess, err := svc.StartSession(ctx, dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.End(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("end session: %v", err)
		}
	}()

	if s, ok := sess.(indexedSession); ok {
		ix := s.Index()
		cmd.Println()
		cmd.Printf("Index built: %d vectors, %d dimensions, model %s\n", ix.Len(), ix.Dimensions(), ix.Model())
	} else {
		cmd.Println("\nIndex built.")
	}
	return nil
}

func printStats(cmd *cobra.Command, stats *domain.CorpusStats) {
	cmd.Printf("Corpus:      %s\n", stats.Directory)
	cmd.Printf("Documents:   %d\n", stats.Documents)
	cmd.Printf("Chunks:      %d\n", stats.Chunks)
	cmd.Printf("Tokens:      %d\n", stats.Tokens)
	cmd.Printf("Max chunk:   %d tokens\n", stats.MaxChunkTokens)

	if stats.Empty {
		cmd.Printf("\n%s\n", domain.CorpusEmptyWarningMessage)
	}

	if len(stats.PerSource) > 0 {
		paths := make([]string, 0, len(stats.PerSource))
		for p := range stats.PerSource {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		cmd.Println("\nChunks per source:")
		for _, p := range paths {
			cmd.Printf("  %-40s %d\n", filesystem.DisplayPath(stats.Directory, p), stats.PerSource[p])
		}
	}

	if len(stats.Skipped) > 0 {
		cmd.Printf("\nSkipped (%d):\n", len(stats.Skipped))
		for _, s := range stats.Skipped {
			cmd.Printf("  %s\n", s)
		}
	}
}
