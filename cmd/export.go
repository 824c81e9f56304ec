package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/codeplay/internal/snippet"
	"github.com/conneroisu/codeplay/internal/storage"
	"github.com/conneroisu/codeplay/internal/templates"
	"github.com/conneroisu/codeplay/internal/validation"
)

var (
	exportTemplate string
	exportOutput   string
	exportForce    bool
)

// Extensions a snippet can be exported under.
var exportExtensions = []string{"html", "css", "js", "jsx", "txt"}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the saved snippet or a template to a file",
	Long: `Export the snippet saved by the playground, or a built-in template, to a
file. The default file name matches the playground's download name for the
snippet's language, e.g. galaxy-code.jsx.

Examples:
  codeplay export
  codeplay export --template react-component
  codeplay export --output site/index.html --force`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportTemplate, "template", "t", "", "Export this template instead of the saved snippet")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default galaxy-code.<ext>)")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "Overwrite an existing file")
}

func runExport(cmd *cobra.Command, args []string) error {
	sn, err := exportSource(cmd)
	if err != nil {
		return err
	}

	name := exportOutput
	if name == "" {
		name = sn.Filename()
	}
	if err := validation.ValidatePath(name); err != nil {
		return err
	}
	if err := validation.ValidateFileExtension(name, exportExtensions); err != nil {
		return err
	}

	if !exportForce {
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", name)
		}
	}

	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(name, []byte(sn.Source), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Code exported as %s\n", name)
	return nil
}

// exportSource picks the template named by --template, or else whatever the
// playground last saved.
func exportSource(cmd *cobra.Command) (snippet.Snippet, error) {
	if exportTemplate != "" {
		t, err := templates.Builtin().Get(exportTemplate)
		if err != nil {
			return snippet.Snippet{}, err
		}
		return t.Snippet(), nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return snippet.Snippet{}, err
	}

	kv, err := storage.Open(cmd.Context(), cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return snippet.Snippet{}, fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}
	defer kv.Close()

	return snippet.NewStore(kv).Load(cmd.Context()), nil
}
