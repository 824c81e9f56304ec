package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/codeplay/internal/templates"
)

var templatesFormat string

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"t"},
	Short:   "List the starter templates",
	Long: `List the built-in templates that can seed the editor.

Examples:
  codeplay templates
  codeplay templates --format json
  codeplay templates show galaxy-theme`,
	Args: cobra.NoArgs,
	RunE: runTemplates,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the body of a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	addFormatFlag(templatesCmd, &templatesFormat, "table", outputFormats...)
}

// templateSummary is a template without its body.
type templateSummary struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Language string `json:"language" yaml:"language"`
	Lines    int    `json:"lines" yaml:"lines"`
}

func summarize(list []templates.Template) []templateSummary {
	out := make([]templateSummary, 0, len(list))
	for _, t := range list {
		out = append(out, templateSummary{
			ID:       t.ID,
			Name:     t.Name,
			Language: t.Language.String(),
			Lines:    countLines(t.Body),
		})
	}
	return out
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

func runTemplates(cmd *cobra.Command, args []string) error {
	summaries := summarize(templates.Builtin().List())
	out := cmd.OutOrStdout()

	switch templatesFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return outputTemplateTable(out, summaries)
	}
}

func outputTemplateTable(out io.Writer, summaries []templateSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLANGUAGE\tLINES")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.Name, s.Language, s.Lines)
	}
	return w.Flush()
}

func runTemplatesShow(cmd *cobra.Command, args []string) error {
	t, err := templates.Builtin().Get(args[0])
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), t.Body)
	return err
}
