package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/sandbox"
)

var (
	runLanguage string
	runFormat   string
	runTimeout  time.Duration
	runStrict   bool
)

var runCmd = &cobra.Command{
	Use:   "run <file|->",
	Short: "Run a snippet headlessly and print its console",
	Long: `Render a source file and execute the inline scripts of the resulting
document in an embedded JavaScript engine. The page's console output, the
final contents of its #output element and any uncaught errors are printed.

External and module scripts are not loaded, so React snippets report their
scripts as skipped.

Examples:
  codeplay run counter.js
  codeplay run page.html --format json
  codeplay run flaky.js --strict --timeout 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addLanguageFlag(runCmd, &runLanguage)
	addFormatFlag(runCmd, &runFormat, "text", "text", "json")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Abort scripts running longer than this (default from headless.timeout)")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Exit with an error when a script throws")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := renderFile(cmd, cfg, args[0], runLanguage)
	if err != nil {
		return err
	}

	timeout := cfg.Headless.Timeout
	if runTimeout > 0 {
		timeout = runTimeout
	}

	result, err := sandbox.NewExecutor(timeout, clock.New()).Run(cmd.Context(), doc)
	if err != nil {
		return err
	}

	if runFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printRunResult(cmd, result)
	}

	if runStrict && len(result.Errors) > 0 {
		return fmt.Errorf("%d script error(s)", len(result.Errors))
	}
	return nil
}

func printRunResult(cmd *cobra.Command, result *sandbox.Result) {
	out := cmd.OutOrStdout()
	for _, entry := range result.Console {
		fmt.Fprintf(out, "%-5s %s\n", entry.Level, entry.Line())
	}
	if result.Output != "" {
		fmt.Fprintf(out, "Output:\n%s\n", result.Output)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", msg)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d script(s) skipped\n", result.Skipped)
	}
}
