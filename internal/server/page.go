package server

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/conneroisu/codeplay/internal/console"
	"github.com/conneroisu/codeplay/internal/snippet"
	"github.com/conneroisu/codeplay/internal/templates"
)

// PageData is everything the playground page is rendered from.
type PageData struct {
	Snippet    snippet.Snippet
	Languages  []snippet.Language
	Templates  []templates.Template
	Theme      snippet.Theme
	Logs       []console.LogEntry
	PreviewURL string
	Nonce      string
	Sandbox    string
}

type pageState struct {
	Language   string   `json:"language"`
	PreviewURL string   `json:"previewURL"`
	Logs       []string `json:"logs"`
	Levels     []string `json:"levels"`
}

// Page renders the playground host page: editor, toolbar, sandboxed
// preview frame and console.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		state := pageState{Language: data.Snippet.Language.String(), PreviewURL: data.PreviewURL}
		for _, e := range data.Logs {
			state.Logs = append(state.Logs, console.Sanitize(e.Line()))
			state.Levels = append(state.Levels, string(e.Level))
		}
		stateJSON, err := templ.JSONString(state)
		if err != nil {
			return err
		}

		p := &printer{w: w}
		p.printf(`<!DOCTYPE html>
<html lang="en" class="theme-%s">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Code Playground</title>
<style>%s</style>
</head>
<body>
<header class="toolbar">
<select id="language" aria-label="Language">`, esc(string(data.Theme)), pageStyle)

		for _, lang := range data.Languages {
			selected := ""
			if lang == data.Snippet.Language {
				selected = " selected"
			}
			p.printf(`<option value="%s"%s>%s</option>`, esc(lang.String()), selected, esc(lang.String()))
		}
		p.printf(`</select>
<select id="template" aria-label="Template"><option value="">Templates</option>`)
		for _, t := range data.Templates {
			p.printf(`<option value="%s">%s</option>`, esc(t.ID), esc(t.Name))
		}
		p.printf(`</select>
<button id="run" title="Ctrl+Enter">Run</button>
<button id="save" title="Ctrl+S">Save</button>
<button id="clear">Clear</button>
<button id="refresh">Refresh</button>
<a id="download" href="/api/download">Download</a>
<button id="theme">Theme</button>
</header>
<main class="panes">
<textarea id="editor" spellcheck="false" aria-label="Code">
%s</textarea>
<iframe id="preview" title="Preview" sandbox="%s" src="%s"></iframe>
</main>
<section id="console" aria-live="polite"></section>
<script type="application/json" id="state">%s</script>
<script nonce="%s">%s</script>
</body>
</html>
`, esc(data.Snippet.Source), esc(data.Sandbox), esc(data.PreviewURL), stateJSON, esc(data.Nonce), pageScript)

		return p.err
	})
}

func esc(s string) string { return templ.EscapeString(s) }

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

const pageStyle = `
.theme-light { --bg: #f8fafc; --panel: #ffffff; --text: #1e293b; --border: #e2e8f0; }
.theme-dark { --bg: #0f172a; --panel: #1e293b; --text: #f1f5f9; --border: #334155; }
body { margin: 0; height: 100vh; display: flex; flex-direction: column; background: var(--bg); color: var(--text); font-family: system-ui, sans-serif; }
.toolbar { display: flex; gap: 8px; padding: 8px; border-bottom: 1px solid var(--border); }
.panes { flex: 1; display: grid; grid-template-columns: 1fr 1fr; min-height: 0; }
#editor { font-family: ui-monospace, monospace; font-size: 14px; padding: 12px; border: 0; border-right: 1px solid var(--border); background: var(--panel); color: var(--text); resize: none; tab-size: 2; }
#preview { width: 100%; height: 100%; border: 0; background: #fff; }
#console { height: 160px; overflow-y: auto; font-family: ui-monospace, monospace; font-size: 12px; padding: 8px; border-top: 1px solid var(--border); background: var(--panel); }
#console .warn { color: #d97706; }
#console .error { color: #dc2626; }
`

const pageScript = `
(function () {
  var state = JSON.parse(document.getElementById('state').textContent);
  var editor = document.getElementById('editor');
  var preview = document.getElementById('preview');
  var out = document.getElementById('console');
  var language = document.getElementById('language');
  var template = document.getElementById('template');
  var limit = 100;
  var ws;

  function log(line, level) {
    var div = document.createElement('div');
    div.className = level || 'info';
    div.textContent = line;
    out.appendChild(div);
    while (out.childNodes.length > limit) out.removeChild(out.firstChild);
    out.scrollTop = out.scrollHeight;
  }
  state.logs && state.logs.forEach(function (l, i) { log(l, state.levels[i]); });

  function send(ev) {
    if (ws && ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(ev));
  }

  function connect() {
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    ws = new WebSocket(proto + location.host + '/ws');
    ws.onopen = function () { out.textContent = ''; };
    ws.onmessage = function (e) {
      var msg = JSON.parse(e.data);
      switch (msg.type) {
      case 'preview': preview.src = msg.url; break;
      case 'log': log(msg.content, msg.level); break;
      case 'snippet':
        editor.value = msg.source;
        language.value = msg.language;
        break;
      case 'buffer':
        editor.value = msg.buffer.text;
        editor.selectionStart = msg.buffer.selection_start;
        editor.selectionEnd = msg.buffer.selection_end;
        break;
      case 'error': log(msg.error, 'error'); break;
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();

  editor.addEventListener('input', function () { send({type: 'edit', text: editor.value}); });
  editor.addEventListener('keydown', function (e) {
    var mod = e.ctrlKey || e.metaKey;
    if ((mod && (e.key === 'Enter' || e.key.toLowerCase() === 's')) ||
        (e.key === 'Tab' && !mod && !e.shiftKey && !e.altKey)) {
      e.preventDefault();
      send({
        type: 'chord',
        chord: {key: e.key, ctrl: e.ctrlKey, meta: e.metaKey, shift: e.shiftKey, alt: e.altKey},
        buffer: {text: editor.value, selection_start: editor.selectionStart, selection_end: editor.selectionEnd}
      });
    }
  });
  language.addEventListener('change', function () { send({type: 'language', language: language.value}); });
  template.addEventListener('change', function () {
    if (template.value) send({type: 'template', template: template.value});
    template.value = '';
  });
  ['run', 'save', 'clear', 'refresh'].forEach(function (id) {
    document.getElementById(id).addEventListener('click', function () { send({type: id}); });
  });
  document.getElementById('theme').addEventListener('click', function () {
    fetch('/api/theme', {method: 'POST'}).then(function (r) { return r.json(); }).then(function (t) {
      document.documentElement.className = 'theme-' + t.theme;
    });
  });
})();
`
