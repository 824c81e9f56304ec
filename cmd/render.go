package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/codeplay/internal/config"
	"github.com/conneroisu/codeplay/internal/preview"
)

var renderLanguage string

var renderCmd = &cobra.Command{
	Use:     "render <file|->",
	Aliases: []string{"r"},
	Short:   "Print the preview document for a source file",
	Long: `Render a source file into the self-contained HTML document the preview
frame would load, and print it to stdout. Use - to read from stdin.

Examples:
  codeplay render index.html
  codeplay render styles.css > preview.html
  cat app.jsx | codeplay render - --language react`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addLanguageFlag(renderCmd, &renderLanguage)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := renderFile(cmd, cfg, args[0], renderLanguage)
	if err != nil {
		return err
	}
	if doc.Empty() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Nothing to render")
		return nil
	}

	_, err = io.WriteString(cmd.OutOrStdout(), string(doc))
	return err
}

// renderFile reads path and renders it with the configured preview options.
func renderFile(cmd *cobra.Command, cfg *config.Config, path, language string) (preview.Document, error) {
	lang, err := languageFor(language, path)
	if err != nil {
		return "", err
	}
	source, err := readSource(cmd, path)
	if err != nil {
		return "", err
	}
	return newRenderer(cfg).Render(source, lang), nil
}

func newRenderer(cfg *config.Config) *preview.Renderer {
	return preview.NewRenderer(preview.Options{
		ReactURL:    cfg.Preview.ReactURL,
		ReactDOMURL: cfg.Preview.ReactDOMURL,
		BabelURL:    cfg.Preview.BabelURL,
	})
}
