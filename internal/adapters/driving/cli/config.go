package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/guru-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/guru-cli/internal/config"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration",
	Long: `Inspect and edit the guru configuration.

Values are resolved from built-in defaults, the config file, a .env file,
environment variables and command line flags, in that order.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a value in the config file",
	Long: `Store a value in the config file.

When the value is omitted for an API key or password it is read from the
terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and ping the models",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the configuration keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range config.Keys() {
			cmd.Println(k)
		}
	},
}

func init() {
	configShowCmd.Flags().Bool("yaml", false, "print as YAML instead of TOML")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The bare "config" command has no --yaml flag.
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		data, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return err
		}
		cmd.Print(string(data))
		return nil
	}
	cmd.Print(cfg.String())
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Default().Save(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cmd.Printf("Wrote default configuration to %s\n", path)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !config.IsKey(key) {
		return domain.NewConfigurationError(key, "unknown configuration key")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	value, _ := cfg.Redacted().Value(key)
	cmd.Println(fmt.Sprint(value))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !config.IsKey(key) {
		return domain.NewConfigurationError(key, "unknown configuration key")
	}

	var raw string
	switch {
	case len(args) == 2:
		raw = args[1]
	case isSecretKey(key):
		cmd.Printf("%s: ", key)
		raw = readSecret(cmd)
		cmd.Println()
	default:
		return errors.New("a value is required")
	}

	// Parse through Config so the file only ever receives well-typed values.
	scratch := config.Default()
	if err := scratch.Set(key, raw); err != nil {
		return err
	}
	value, _ := scratch.Value(key)

	path, err := configPath()
	if err != nil {
		return err
	}
	store, err := file.NewConfigStore(path)
	if err != nil {
		return err
	}
	if err := store.Set(key, value); err != nil {
		return err
	}

	if isSecretKey(key) {
		cmd.Printf("Set %s in %s\n", key, store.Path())
	} else {
		cmd.Printf("Set %s = %v in %s\n", key, value, store.Path())
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	a, err := app(cmd)
	if err != nil {
		return err
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}
	cmd.Println("Configuration is valid.")

	if a.Check == nil {
		_, err := a.sessionService()
		return err
	}
	if err := a.Check(cmd.Context()); err != nil {
		return err
	}
	emb, llm := a.Config.EmbeddingSettings(), a.Config.LLMSettings()
	cmd.Printf("Embedding model %s on %s is reachable.\n", emb.Model, emb.Provider.Description())
	cmd.Printf("Chat model %s on %s is reachable.\n", llm.Model, llm.Provider.Description())
	return nil
}

// configPath is the --config file or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "password")
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(cmd *cobra.Command) string {
	in := cmd.InOrStdin()
	if isTerminal(in) {
		secret, err := term.ReadPassword(int(in.(*os.File).Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}
