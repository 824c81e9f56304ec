package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/codeplay/internal/config"
	"github.com/conneroisu/codeplay/internal/logging"
	"github.com/conneroisu/codeplay/internal/preview"
	"github.com/conneroisu/codeplay/internal/sandbox"
	"github.com/conneroisu/codeplay/internal/server"
	"github.com/conneroisu/codeplay/internal/snippet"
	"github.com/conneroisu/codeplay/internal/storage"
	"github.com/conneroisu/codeplay/internal/templates"
	"github.com/conneroisu/codeplay/internal/testutils"
	"github.com/conneroisu/codeplay/internal/version"
)

// execute runs the root command in a fresh temp directory with an
// isolated configuration.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	renderLanguage, runLanguage, runFormat = "", "", "text"
	runTimeout, runStrict = 0, false
	templatesFormat, versionFormat, versionShort = "table", "text", false
	exportTemplate, exportOutput, exportForce = "", "", false

	v := viper.New()
	loadConfig = func() (*config.Config, error) { return config.LoadFrom(v) }
	t.Cleanup(func() { loadConfig = config.Load })

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestTemplatesTable(t *testing.T) {
	out, _, err := execute(t, "", "templates")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Regexp(t, `^ID\s+NAME\s+LANGUAGE\s+LINES$`, lines[0])
	assert.Regexp(t, `^css-animation\s+Css Animation\s+css\s+\d+$`, lines[1])
	assert.True(t, strings.HasPrefix(lines[5], "react-component"))
}

func TestTemplatesJSONAndYAML(t *testing.T) {
	out, _, err := execute(t, "", "templates", "--format", "json")
	require.NoError(t, err)
	var fromJSON []templateSummary
	require.NoError(t, json.Unmarshal([]byte(out), &fromJSON))

	out, _, err = execute(t, "", "templates", "-f", "yaml")
	require.NoError(t, err)
	var fromYAML []templateSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))

	require.Len(t, fromJSON, 5)
	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, "galaxy-theme", fromJSON[1].ID)
	assert.Equal(t, "html", fromJSON[1].Language)
	assert.Equal(t, "react", fromJSON[4].Language)
}

func TestTemplatesRejectsUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "", "templates", "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of: table, json, yaml")
}

func TestTemplatesShow(t *testing.T) {
	want, err := templates.Builtin().Get("js-interactive")
	require.NoError(t, err)

	out, _, err := execute(t, "", "templates", "show", "js-interactive")
	require.NoError(t, err)
	assert.Equal(t, want.Body, out)

	_, _, err = execute(t, "", "templates", "show", "nope")
	assert.Error(t, err)
}

func TestRenderFile(t *testing.T) {
	path := testutils.WriteFile(t, "styles.css", "h1 { color: red; }")

	out, _, err := execute(t, "", "render", path)
	require.NoError(t, err)

	want := preview.NewRenderer(preview.DefaultOptions()).Render("h1 { color: red; }", snippet.LanguageStyles)
	assert.Equal(t, string(want), out)
}

func TestRenderStdin(t *testing.T) {
	_, _, err := execute(t, "<p>hi</p>", "render", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--language")

	out, _, err := execute(t, "<p>hi</p>", "render", "-", "--language", "html")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", out)

	_, _, err = execute(t, "", "render", "-", "--language", "cobol")
	assert.Error(t, err)
}

func TestRenderBlankMarkup(t *testing.T) {
	out, errOut, err := execute(t, "", "render", "-", "--language", "html")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Nothing to render")
}

func TestRunScript(t *testing.T) {
	path := testutils.WriteFile(t, "hello.js", "console.log('hi', 1)")

	out, errOut, err := execute(t, "", "run", path)
	require.NoError(t, err)
	assert.Regexp(t, `info  \[\d\d:\d\d:\d\d\] hi 1`, out)
	assert.Contains(t, out, "Output:\nhi 1<br>\n")
	assert.Empty(t, errOut)
}

func TestRunJSON(t *testing.T) {
	path := testutils.WriteFile(t, "hello.js", "console.log('hi')")

	out, _, err := execute(t, "", "run", path, "--format", "json")
	require.NoError(t, err)

	var res sandbox.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "hi<br>", res.Output)
	require.Len(t, res.Console, 1)
	assert.Equal(t, "hi", res.Console[0].Message)
}

func TestRunStrict(t *testing.T) {
	path := testutils.WriteFile(t, "broken.js", "let = ;")

	_, errOut, err := execute(t, "", "run", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "error: ")

	_, _, err = execute(t, "", "run", path, "--strict")
	require.Error(t, err)
	assert.Equal(t, "1 script error(s)", err.Error())
}

func TestExportTemplate(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execute(t, "", "export", "--template", "react-component")
	require.NoError(t, err)
	assert.Equal(t, "Code exported as galaxy-code.jsx\n", out)

	want, err := templates.Builtin().Get("react-component")
	require.NoError(t, err)
	data, err := os.ReadFile("galaxy-code.jsx")
	require.NoError(t, err)
	assert.Equal(t, want.Body, string(data))
	testutils.AssertFilePermissions(t, "galaxy-code.jsx", 0o644)

	_, _, err = execute(t, "", "export", "--template", "react-component")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, "", "export", "--template", "react-component", "--force")
	assert.NoError(t, err)
}

func TestExportSavedSnippet(t *testing.T) {
	t.Chdir(t.TempDir())

	ctx := context.Background()
	kv, err := storage.Open(ctx, storage.DriverFile, ".codeplay/playground.yml")
	require.NoError(t, err)
	require.NoError(t, snippet.NewStore(kv).Save(ctx, snippet.Snippet{Source: "body {}", Language: snippet.LanguageStyles}))
	require.NoError(t, kv.Close())

	out, _, err := execute(t, "", "export", "--output", "out/site.css")
	require.NoError(t, err)
	assert.Equal(t, "Code exported as out/site.css\n", out)

	data, err := os.ReadFile(filepath.Join("out", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body {}", string(data))
}

func TestExportRejectsBadOutput(t *testing.T) {
	t.Chdir(t.TempDir())

	for _, name := range append([]string{"notes.exe", "galaxy-code"}, testutils.MaliciousPaths...) {
		_, _, err := execute(t, "", "export", "--template", "html-basic", "--output", name)
		assert.Error(t, err, name)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Get().Short()+"\n", out)

	out, _, err = execute(t, "", "version", "--format", "json")
	require.NoError(t, err)
	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.GoVersion)
}

func TestWatchSourceDrivesSession(t *testing.T) {
	cfg := testutils.NewConfig(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(server.Options{Config: cfg, KV: storage.NewMemoryStore(), Logger: logging.NewNopLogger()})
	require.NoError(t, srv.Start(ctx))
	defer srv.Shutdown(context.Background())

	path := testutils.WriteFile(t, "demo.css", "h1 {}\x00")
	fw, err := watchSource(ctx, srv.Session(), path, logging.NewNopLogger())
	require.NoError(t, err)
	defer fw.Stop()

	got := srv.Session().Snapshot()
	assert.Equal(t, "h1 {}", got.Source)
	assert.Equal(t, snippet.LanguageStyles, got.Language)
}

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		path    string
		want    snippet.Language
		wantErr bool
	}{
		{"html extension", "", "index.html", snippet.LanguageMarkup, false},
		{"jsx extension", "", "app.jsx", snippet.LanguageComponent, false},
		{"js extension", "", "dir/app.JS", snippet.LanguageScript, false},
		{"flag wins", "css", "index.html", snippet.LanguageStyles, false},
		{"unknown extension", "", "notes.md", snippet.LanguageUnknown, true},
		{"stdin", "", "-", snippet.LanguageUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := languageFor(tt.flag, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlagValidators(t *testing.T) {
	assert.NoError(t, ValidatePort("0"))
	assert.NoError(t, ValidatePort("8080"))
	assert.Error(t, ValidatePort("65536"))
	assert.Error(t, ValidatePort("http"))

	assert.NoError(t, ValidateFileExists(""))
	assert.NoError(t, ValidateFileExists(testutils.WriteFile(t, "a.html", "")))
	assert.Error(t, ValidateFileExists(t.TempDir()))
	assert.Error(t, ValidateFileExists(filepath.Join(t.TempDir(), "missing.html")))

	oneOf := ValidateOneOf("text", "json")
	assert.NoError(t, oneOf("json"))
	assert.Error(t, oneOf("xml"))
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("a"))
	assert.Equal(t, 2, countLines("a\nb\n"))
	assert.Equal(t, 3, countLines("a\n\nb"))
}
