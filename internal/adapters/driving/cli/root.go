// Package cli implements the guru command line: the chat REPL, one-shot
// questions, corpus inspection, configuration and the TUI and MCP entry
// points.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guru-cli/internal/config"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

// version is overridden at build time with -ldflags.
var version = "dev"

// ErrNotConfigured is returned when a command runs before SetBuilder.
var ErrNotConfigured = errors.New("services not configured")

// App holds the services built from the effective configuration.
type App struct {
	Config *config.Config

	// Sessions is nil when the language or embedding services could not be
	// configured; SessionErr says why. Commands that never call a model
	// (index, config) still work.
	Sessions   driving.SessionService
	SessionErr error

	Corpus driving.CorpusService

	// History is nil when transcripts are disabled.
	History driving.HistoryService

	// Check pings the embedding and language models. Nil when Sessions is.
	Check func(ctx context.Context) error

	// Watch returns a change watcher for a corpus directory.
	Watch func(directory string) driven.CorpusWatcher

	// Close releases everything the builder opened.
	Close func() error
}

// Builder constructs the App for a loaded configuration.
type Builder func(ctx context.Context, cfg *config.Config) (*App, error)

var (
	builder Builder
	current *App

	cfgFile string
	envFile string
	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "guru",
	Short: "Ask questions about a folder of documents",
	Long: `Guru answers questions about the documents in a data directory.

It splits the documents into chunks, embeds them, retrieves the chunks most
similar to each question and asks a language model to answer from them,
keeping a running summary of the conversation for follow-up questions.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ~/.guru/config.toml)")
	flags.StringVar(&envFile, "env-file", "", "dotenv file to load (default ./.env)")
	flags.StringVar(&dataDir, "data", "", "corpus directory (overrides DATA_DIRECTORY)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "trace the answering pipeline")
}

// SetBuilder sets the function that wires services for commands.
func SetBuilder(b Builder) {
	builder = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases the services it built.
func Execute() error {
	defer closeApp()
	return rootCmd.Execute()
}

// loadConfig loads the configuration named by the persistent flags.
func loadConfig() (*config.Config, error) {
	opts := config.Options{Path: cfgFile, EnvFile: envFile}
	if dataDir != "" {
		opts.Overrides = map[string]string{"corpus.directory": dataDir}
	}
	return config.Load(opts)
}

// app builds the services on first use.
func app(cmd *cobra.Command) (*App, error) {
	if current != nil {
		return current, nil
	}
	if builder == nil {
		return nil, ErrNotConfigured
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Debug("Effective configuration:\n%s", cfg)

	a, err := builder(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	current = a
	return a, nil
}

// sessionService returns the session service or the reason it is missing.
func (a *App) sessionService() (driving.SessionService, error) {
	if a.Sessions == nil {
		if a.SessionErr != nil {
			return nil, a.SessionErr
		}
		return nil, ErrNotConfigured
	}
	return a.Sessions, nil
}

func closeApp() {
	if current == nil {
		return
	}
	if current.Close != nil {
		if err := current.Close(); err != nil {
			logger.Warn("closing services: %v", err)
		}
	}
	current = nil
}
