// Package cli implements the geometax command tree: local batch extraction,
// job submission against a running API server, annotation lookup, reference
// data lifecycle, and schema migrations.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/turtacn/geometax/internal/config"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/client"
	"github.com/turtacn/geometax/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
	ServerAddr   string
}

// CLIContext carries the initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Client       *client.Client
	OutputFormat string
	Timeout      time.Duration
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "geometax",
		Short:   "GEO metadata extraction and ontology resolution",
		Long:    "geometax annotates GEO ChIP-seq samples: it extracts the target factor\nand resolves cell line, cell type, tissue, and disease terms against the\nCellosaurus, EFO, and Uberon vocabularies.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./geometax.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "json", "output format (json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose logging")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "API request timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address (default: http://localhost:8080)")

	cmd.AddCommand(
		NewExtractCmd(),
		NewJobsCmd(),
		NewAnnotationsCmd(),
		NewSearchCmd(),
		NewReferenceCmd(),
		NewRefdataCmd(),
		NewMigrateCmd(),
	)

	return cmd
}

// persistentPreRun loads config, builds the logger and API client, and stores
// the CLIContext on the command context.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return err
	}

	logger, err := initLogger(opts)
	if err != nil {
		return err
	}

	addr := opts.ServerAddr
	if addr == "" {
		addr = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	apiClient, err := client.New(addr, client.WithTimeout(opts.Timeout))
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Client:       apiClient,
		OutputFormat: opts.OutputFormat,
		Timeout:      opts.Timeout,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration: the --config flag wins, then the standard
// search paths, then environment and defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	paths := []string{"./geometax.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".geometax", "config.yaml"))
	}
	paths = append(paths, "/etc/geometax/config.yaml")

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// initLogger builds a console logger on stderr so command output on stdout
// stays machine-readable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext stored by persistentPreRun.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	if ctx := cmd.Context(); ctx != nil {
		if c, ok := ctx.Value(cliContextKey{}).(*CLIContext); ok && c != nil {
			return c, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInternal, "command context not initialized")
}

// Execute runs the command tree and reports the failure, if any, on stderr.
func Execute() error {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}

// PrintResult writes data to stdout in the selected output format.
func PrintResult(cmd *cobra.Command, data any) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	if strings.EqualFold(cliCtx.OutputFormat, "table") {
		if tp, ok := data.(tableProvider); ok {
			fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
			return nil
		}
	}
	return printJSON(cmd, data)
}

type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

func printJSON(cmd *cobra.Command, data any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, widths[i]))
	}
	sb.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, widths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
