package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/mdoutline/internal/config"
	"github.com/salmonumbrella/mdoutline/internal/logging"
	"github.com/salmonumbrella/mdoutline/internal/output"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(versionTemplate())
}

// Global flags
var (
	backendName string
	dbPath      string
	graphName   string
	apiToken    string
	outputFmt   string
	outputType  output.Format
	debug       bool
	logLevel    string
	configFile  string
	queryExpr   string
	queryFile   string
	errorFmt    string
	quietFlag   bool
	yesFlag     bool
	resultLimit int
	resultSort  string
	resultDesc  bool
)

// loadedConfig is the config file read by PersistentPreRunE. Config
// subcommands skip loading and leave it nil.
var loadedConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "mdoutline",
	Short: "Paste Markdown into outline notes",
	Long: `mdoutline converts Markdown into hierarchical outline notes.

Each top-level heading becomes its own note; lists, tasks, quotes, code
fences and headings become nested line items. Notes are written to a local
SQLite notebook by default, or to a Roam Research graph.

Environment Variables:
  ROAM_API_TOKEN     API token for the roam backends
  ROAM_GRAPH_NAME    Default graph name
  MDOUTLINE_BACKEND  Backend (sqlite|roam|roam-append|memory)
  MDOUTLINE_DB       SQLite notebook path`,
	Version:       version,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		loadedConfig = nil
		if !isConfigCommand(cmd) {
			cfg, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			loadedConfig = cfg
		}
		cfg := loadedConfig

		// Output format selection: --output > config > non-TTY json > text
		formatStr := outputFmt
		explicit := flagChanged(cmd, "output") || flagChanged(cmd, "format")
		if !explicit && cfg != nil && strings.TrimSpace(cfg.OutputFormat) != "" {
			formatStr = strings.TrimSpace(cfg.OutputFormat)
		} else if !explicit && !isTerminal(cmd.OutOrStdout()) {
			formatStr = "json"
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readInputSource(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = loaded
		}

		// Default quiet mode for non-interactive structured output
		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = withLogger(ctx, logger)
		ctx = output.WithFormat(ctx, outputType)
		ctx = output.WithQuery(ctx, queryExpr)
		ctx = output.WithYes(ctx, yesFlag)
		ctx = output.WithLimit(ctx, resultLimit)
		ctx = output.WithSort(ctx, resultSort, resultDesc)
		ctx = output.WithQuiet(ctx, quietFlag)
		ctx = WithErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)
		cmd.Root().SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		if effectiveErrorFormat(ctx) != "text" {
			cmd.SilenceUsage = true
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printCommandError(currentContext(), err)
		return err
	}
	return nil
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

func versionTemplate() string {
	return fmt.Sprintf("mdoutline version %s (commit: %s, built: %s)\n", version, commit, date)
}

func init() {
	rootCmd.SetVersionTemplate(versionTemplate())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&backendName, "backend", "", "Notebook backend: sqlite|roam|roam-append|memory (env: MDOUTLINE_BACKEND)")
	flags.StringVar(&dbPath, "db", "", "SQLite notebook path (env: MDOUTLINE_DB)")
	flags.StringVarP(&graphName, "graph", "g", "", "Roam graph name (env: ROAM_GRAPH_NAME)")
	flags.StringVar(&apiToken, "token", "", "Roam API token (env: ROAM_API_TOKEN)")
	flags.StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	flags.StringVar(&outputFmt, "format", "text", "Alias for --output")
	flags.StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	flags.StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	flags.StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	flags.BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	flags.BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmation prompts (for automation)")
	flags.BoolVar(&yesFlag, "no-input", false, "Alias for --yes (non-interactive)")
	flags.IntVar(&resultLimit, "result-limit", 0, "Limit number of results in output (0 = unlimited)")
	flags.StringVar(&resultSort, "result-sort-by", "", "Sort output results by field")
	flags.BoolVar(&resultDesc, "result-desc", false, "Sort output results in descending order")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flags.StringVar(&configFile, "config", "", "Config file (default: ~/.config/mdoutline/config.yaml)")
}

// newLogger picks the level from --log-level, then --debug, then config.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	value := ""
	switch {
	case strings.TrimSpace(logLevel) != "":
		value = logLevel
	case debug:
		value = "debug"
	case cfg != nil:
		value = cfg.LogLevel
	}
	level, err := logging.ParseLevel(value)
	if err != nil {
		return nil, err
	}
	return logging.New(cmd.ErrOrStderr(), level), nil
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
