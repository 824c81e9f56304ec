// Package preview turns a snippet into a complete HTML document ready to be
// loaded into an isolated display surface.
//
// Each supported language has exactly one builder. Builders never inspect or
// validate the source; they only decide what surrounds it:
//
//   - markup is used verbatim
//   - styles go into a <style> block over a fixed set of demo elements
//   - script runs inside try/catch with console.log mirrored into #output,
//     and a thrown error becomes a red line in that same region
//   - component is handed to remotely loaded React and Babel
//
// An unsupported language renders as an empty document.
package preview

import (
	"strings"

	"github.com/conneroisu/codeplay/internal/snippet"
)

// Document is a fully formed HTML document.
type Document string

// Empty reports whether the document has no content at all.
func (d Document) Empty() bool { return d == "" }

// Default runtime locations for component snippets.
const (
	DefaultReactURL    = "https://unpkg.com/react@17/umd/react.development.js"
	DefaultReactDOMURL = "https://unpkg.com/react-dom@17/umd/react-dom.development.js"
	DefaultBabelURL    = "https://unpkg.com/@babel/standalone/babel.min.js"
)

// Options configures the remote runtime used by component documents.
type Options struct {
	ReactURL    string
	ReactDOMURL string
	BabelURL    string
}

// DefaultOptions returns the unpkg React 17 runtime.
func DefaultOptions() Options {
	return Options{
		ReactURL:    DefaultReactURL,
		ReactDOMURL: DefaultReactDOMURL,
		BabelURL:    DefaultBabelURL,
	}
}

type builder func(source string) Document

// Renderer builds preview documents. It holds no mutable state, so Render is
// a pure function of its arguments and safe for concurrent use.
type Renderer struct {
	opts     Options
	builders map[snippet.Language]builder
}

// NewRenderer creates a renderer. Empty option fields take their defaults.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.ReactURL == "" {
		opts.ReactURL = def.ReactURL
	}
	if opts.ReactDOMURL == "" {
		opts.ReactDOMURL = def.ReactDOMURL
	}
	if opts.BabelURL == "" {
		opts.BabelURL = def.BabelURL
	}

	r := &Renderer{opts: opts}
	r.builders = map[snippet.Language]builder{
		snippet.LanguageMarkup:    renderMarkup,
		snippet.LanguageStyles:    renderStyles,
		snippet.LanguageScript:    renderScript,
		snippet.LanguageComponent: r.renderComponent,
	}
	return r
}

// Render builds the document for source under lang.
func (r *Renderer) Render(source string, lang snippet.Language) Document {
	build, ok := r.builders[lang]
	if !ok {
		return ""
	}
	return build(source)
}

// RenderSnippet is Render for a whole snippet.
func (r *Renderer) RenderSnippet(s snippet.Snippet) Document {
	return r.Render(s.Source, s.Language)
}

func renderMarkup(source string) Document {
	return Document(source)
}

func renderStyles(source string) Document {
	var b strings.Builder
	b.Grow(len(stylesHead) + len(source) + len(stylesTail))
	b.WriteString(stylesHead)
	b.WriteString(source)
	b.WriteString(stylesTail)
	return Document(b.String())
}

func renderScript(source string) Document {
	var b strings.Builder
	b.Grow(len(scriptHead) + len(source) + len(scriptTail))
	b.WriteString(scriptHead)
	b.WriteString(source)
	b.WriteString(scriptTail)
	return Document(b.String())
}

func (r *Renderer) renderComponent(source string) Document {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`<script crossorigin src="` + r.opts.ReactURL + `"></script>` + "\n")
	b.WriteString(`<script crossorigin src="` + r.opts.ReactDOMURL + `"></script>` + "\n")
	b.WriteString(`<script src="` + r.opts.BabelURL + `"></script>` + "\n")
	b.WriteString(componentStyle)
	b.WriteString("</head>\n<body>\n<div id=\"root\"></div>\n<script type=\"text/babel\">\n")
	b.WriteString(source)
	b.WriteString("\n</script>\n</body>\n</html>\n")
	return Document(b.String())
}

const stylesHead = `<!DOCTYPE html>
<html>
<head>
<style>
`

const stylesTail = `
</style>
</head>
<body>
<div class="demo-content">
<h1>CSS Preview</h1>
<p>This is a paragraph of text.</p>
<button>Button</button>
<div class="box">Box element</div>
</div>
</body>
</html>
`

// OutputID is the id of the region script documents write their log into.
const OutputID = "output"

const scriptHead = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; padding: 20px; }
#output { background: #f5f5f5; padding: 15px; border-radius: 5px; margin-top: 20px; }
</style>
</head>
<body>
<h1>JavaScript Preview</h1>
<div id="output"></div>
<script>
const output = document.getElementById('output');
const originalLog = console.log;
console.log = function(...args) {
    output.innerHTML += args.join(' ') + '<br>';
    originalLog.apply(console, args);
};

try {
`

const scriptTail = `
} catch (error) {
    output.innerHTML += '<span style="color: red;">Error: ' + error.message + '</span><br>';
}
</script>
</body>
</html>
`

const componentStyle = `<style>
body { font-family: Arial, sans-serif; padding: 20px; }
</style>
`
