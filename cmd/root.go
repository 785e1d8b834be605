/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/docmaint/internal/gitctx"
	"github.com/fulmenhq/docmaint/internal/maintain"
	"github.com/fulmenhq/docmaint/pkg/ascii"
	"github.com/fulmenhq/docmaint/pkg/buildinfo"
	"github.com/fulmenhq/docmaint/pkg/config"
	"github.com/fulmenhq/docmaint/pkg/exitcode"
	"github.com/fulmenhq/docmaint/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docmaint",
		Short: "Keep a repository's documentation tree organized",
		Long: `Docmaint relocates stray markdown into the docs tree, creates missing
AGENT.md and README.md files, enforces file naming conventions and repairs
broken relative links. Every run writes a Markdown maintenance report.

Examples:
   docmaint                      # Fix everything under the current directory
   docmaint --dry-run            # Show what would change, touch nothing but the report
   docmaint --only broken-links  # Run a single plugin
   docmaint --version            # Show version`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			initializeLogger(cmd, dryRun)
		},
		RunE: runMaintain,
	}

	// Logging flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Run flags; the config layer binds the ones a user actually set.
	cmd.Flags().Bool("dry-run", false, "Compute every change without touching the filesystem")
	cmd.Flags().String("root", ".", "Repository root")
	cmd.Flags().String("docs", "docs", "Documentation root, relative to --root")
	cmd.Flags().String("src", "src", "Source directory scanned for stray markdown, relative to --root")
	cmd.Flags().String("report", ".maintenance-report.md", "Report file, relative to the working directory")
	cmd.Flags().String("config", "", "Config file (default .docmaint.yaml in the working directory or $HOME)")
	cmd.Flags().StringSlice("only", nil, "Run only these plugins: "+strings.Join(maintain.PluginNames(), ", "))
	cmd.Flags().Bool("respect-gitignore", false, "Skip files matched by .gitignore")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("docmaint {{.Version}}\n")

	return cmd
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("Command execution failed",
			logger.Err(err),
			logger.String("exit", exitcode.String(exitcode.GeneralError)))
		os.Exit(exitcode.GeneralError)
	}
}

// runMaintain loads configuration, runs the plugin pipeline and writes the
// report. Plugin failures end up in the report; only errors that abort the
// run, panics included, are returned.
func runMaintain(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("panic stack", logger.String("stack", string(debug.Stack())))
			err = fmt.Errorf("unexpected panic: %v", r)
		}
	}()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	if err := cfg.Resolve(); err != nil {
		return err
	}
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); cfg.DryRun && !dryRun {
		// dry_run came from the config file or environment
		initializeLogger(cmd, true)
	}
	if cfg.ConfigFile != "" {
		logger.Debug("using config file", logger.String("path", cfg.ConfigFile))
	}

	out := cmd.OutOrStdout()
	env := maintain.NewEnv(cfg, out)
	plugins, err := maintain.Select(maintain.DefaultPlugins(env), cfg.Plugins)
	if err != nil {
		return err
	}

	logger.Info("starting documentation maintenance",
		logger.String("root", cfg.Root),
		logger.String("docs", cfg.DocsRoot),
		logger.Bool("dry_run", cfg.DryRun),
		logger.Int("plugins", len(plugins)))

	report, runErr := maintain.NewPipeline(env, plugins...).Run(cmd.Context())
	report.Context = gitctx.Collect(cfg.Root)

	if err := writeReport(cfg.ReportPath, report.Generate()); err != nil {
		return fmt.Errorf("write report %s: %w", cfg.ReportPath, err)
	}
	printSummary(out, report, cfg.ReportPath)

	if os.Getenv("GITHUB_ACTIONS") == "true" {
		_, _ = fmt.Fprintf(out, "::set-output name=has_changes::%t\n", report.HasChanges())
	}

	if runErr != nil {
		return fmt.Errorf("maintenance run aborted: %w", runErr)
	}
	logger.Info("documentation maintenance complete",
		logger.Bool("has_changes", report.HasChanges()),
		logger.Int("errors", report.Errors()))
	return nil
}

func writeReport(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// maxNoticePath caps the report path shown in the closing notice.
const maxNoticePath = 60

// printSummary writes the per-plugin counts table and a boxed closing notice.
func printSummary(w io.Writer, report *maintain.Report, reportPath string) {
	headers := []string{"Plugin", "Findings", "Changes", "Simulated", "Errors"}
	var rows [][]string
	for _, res := range report.Results {
		s := res.Stats()
		rows = append(rows, []string{
			res.Name(),
			strconv.Itoa(s.Findings),
			strconv.Itoa(s.Changes),
			strconv.Itoa(s.Simulated),
			strconv.Itoa(res.Errors),
		})
	}
	t := report.Totals()
	rows = append(rows, []string{"total", strconv.Itoa(t.Findings), strconv.Itoa(t.Changes), strconv.Itoa(t.Simulated), strconv.Itoa(report.Errors())})

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, ascii.Table(headers, rows, ascii.AlignLeft, ascii.AlignRight, ascii.AlignRight, ascii.AlignRight, ascii.AlignRight))

	var notice []string
	if report.DryRun {
		notice = append(notice, "Dry run: no files were changed.")
	}
	notice = append(notice, "📝 Report written to "+ascii.Truncate(reportPath, maxNoticePath))
	_, _ = fmt.Fprint(w, ascii.Box(notice))
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command, dryRun bool) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "docmaint",
		DryRun:    dryRun,
	}

	if err := logger.Initialize(config); err != nil {
		// Fallback to stderr
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.GeneralError)
	}
}
