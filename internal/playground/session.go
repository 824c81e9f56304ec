// Package playground wires the editor state to the renderer, the sandbox
// host and the console bridge. A Session is constructed once per served
// page and driven by events from the browser or a watched file.
package playground

import (
	"context"
	"sync"
	"time"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/console"
	"github.com/conneroisu/codeplay/internal/debounce"
	"github.com/conneroisu/codeplay/internal/logging"
	"github.com/conneroisu/codeplay/internal/preview"
	"github.com/conneroisu/codeplay/internal/sandbox"
	"github.com/conneroisu/codeplay/internal/shortcuts"
	"github.com/conneroisu/codeplay/internal/snippet"
	"github.com/conneroisu/codeplay/internal/templates"
)

// DefaultAutosaveInterval is how often a non-blank snippet is persisted.
const DefaultAutosaveInterval = 30 * time.Second

// Messages written to the console bridge.
const (
	MsgWelcome   = "Welcome to the code playground!"
	MsgTip       = "Tip: press Ctrl+Enter to run your code"
	MsgExecuted  = "Code executed"
	MsgSaved     = "Saved to local storage"
	MsgCleared   = "Code cleared"
	MsgRefreshed = "Preview refreshed"
	MsgTemplate  = "Loaded template:"
	MsgDownload  = "Code downloaded as"
)

// Deps are the collaborators a Session drives.
type Deps struct {
	Store    *snippet.Store
	Renderer *preview.Renderer
	Host     *sandbox.Host
	Console  console.Console
	Library  *templates.Library
}

// Config holds the timing knobs of a Session. Zero fields take defaults.
type Config struct {
	Debounce         time.Duration
	AutosaveInterval time.Duration
	Clock            clock.Clock
	Logger           logging.Logger
}

// Session is the single owner of the playground state.
type Session struct {
	store    *snippet.Store
	renderer *preview.Renderer
	host     *sandbox.Host
	console  console.Console
	library  *templates.Library
	keymap   shortcuts.Keymap
	clock    clock.Clock
	logger   logging.Logger
	interval time.Duration
	debounce *debounce.Debouncer[struct{}]

	mutex    sync.Mutex
	snippet  snippet.Snippet
	ctx      context.Context
	autosave clock.Timer
	closed   bool
}

// New creates a session. Call Start before handling events.
func New(deps Deps, cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = DefaultAutosaveInterval
	}
	if deps.Library == nil {
		deps.Library = templates.Builtin()
	}
	if deps.Console == nil {
		deps.Console = console.NewBridge(nil, nil, cfg.Clock)
	}
	if deps.Renderer == nil {
		deps.Renderer = preview.NewRenderer(preview.DefaultOptions())
	}

	s := &Session{
		store:    deps.Store,
		renderer: deps.Renderer,
		host:     deps.Host,
		console:  deps.Console,
		library:  deps.Library,
		clock:    cfg.Clock,
		logger:   cfg.Logger.WithComponent("playground"),
		interval: cfg.AutosaveInterval,
		snippet:  snippet.Default(),
		ctx:      context.Background(),
	}
	// The render reads the snippet when the timer fires so that language
	// changes and indents made during the quiet period are included.
	s.debounce = debounce.New(cfg.Debounce, cfg.Clock, func(struct{}) {
		_ = s.publish(s.baseContext(), s.Snapshot())
	})
	return s
}

// Start loads the saved snippet, renders it and greets the user.
func (s *Session) Start(ctx context.Context) error {
	s.mutex.Lock()
	s.ctx = ctx
	if s.store != nil {
		s.snippet = s.store.Load(ctx)
	}
	sn := s.snippet
	s.mutex.Unlock()

	err := s.publish(ctx, sn)
	s.console.Info(MsgWelcome)
	s.console.Info(MsgTip)
	return err
}

// Snapshot returns the current snippet.
func (s *Session) Snapshot() snippet.Snippet {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snippet
}

// Edit replaces the source and schedules a debounced render.
func (s *Session) Edit(text string) {
	s.mutex.Lock()
	s.snippet.Source = text
	s.mutex.Unlock()

	s.debounce.Trigger(struct{}{})
}

// SetLanguage changes the target language. The preview is not re-rendered
// until the next edit or explicit run.
func (s *Session) SetLanguage(lang snippet.Language) {
	s.mutex.Lock()
	s.snippet.Language = lang
	s.mutex.Unlock()
}

// Run renders immediately, dropping any pending debounced render.
func (s *Session) Run(ctx context.Context) error {
	if err := s.renderNow(ctx); err != nil {
		return err
	}
	s.console.Info(MsgExecuted)
	return nil
}

// Refresh re-renders the current snippet.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.renderNow(ctx); err != nil {
		return err
	}
	s.console.Info(MsgRefreshed)
	return nil
}

// Clear empties the source and renders the empty snippet.
func (s *Session) Clear(ctx context.Context) error {
	s.mutex.Lock()
	s.snippet.Source = ""
	s.mutex.Unlock()

	if err := s.renderNow(ctx); err != nil {
		return err
	}
	s.console.Info(MsgCleared)
	return nil
}

// Save persists the snippet. Failures are reported on the console and
// returned.
func (s *Session) Save(ctx context.Context) error {
	sn := s.Snapshot()
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, sn); err != nil {
		s.logger.Error(ctx, err, "Failed to save snippet")
		s.console.Error("Save failed:", err)
		return err
	}
	s.console.Info(MsgSaved)
	return nil
}

// LoadTemplate replaces the snippet with the template and renders it.
// Unknown ids leave the session untouched and return a not-found error.
func (s *Session) LoadTemplate(ctx context.Context, id string) error {
	tpl, err := s.library.Get(id)
	if err != nil {
		s.logger.Warn(ctx, err, "Unknown template", "id", id)
		return err
	}

	s.mutex.Lock()
	s.snippet = tpl.Snippet()
	s.mutex.Unlock()

	if err := s.renderNow(ctx); err != nil {
		return err
	}
	s.console.Info(MsgTemplate, id)
	return nil
}

// Templates lists the available templates.
func (s *Session) Templates() []templates.Template {
	return s.library.List()
}

// HandleChord applies the action bound to chord. For indent it returns the
// edited buffer and updates the source without scheduling a render, the
// same as a programmatic edit in the browser.
func (s *Session) HandleChord(ctx context.Context, chord shortcuts.Chord, buf shortcuts.Buffer) (shortcuts.Action, shortcuts.Buffer, error) {
	action := s.keymap.Resolve(chord)
	switch action {
	case shortcuts.ActionRun:
		return action, buf, s.Run(ctx)
	case shortcuts.ActionSave:
		return action, buf, s.Save(ctx)
	case shortcuts.ActionIndent:
		next := buf.InsertIndent()
		s.mutex.Lock()
		s.snippet.Source = next.Text
		s.mutex.Unlock()
		return action, next, nil
	default:
		return action, buf, nil
	}
}

// Download is a snippet offered as a file.
type Download struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Download returns the snippet as a plain-text attachment.
func (s *Session) Download() Download {
	sn := s.Snapshot()
	d := Download{
		Filename:    sn.Filename(),
		ContentType: "text/plain; charset=utf-8",
		Content:     []byte(sn.Source),
	}
	s.console.Info(MsgDownload, d.Filename)
	return d
}

// Render returns the document for the current snippet without publishing.
func (s *Session) Render() preview.Document {
	return s.renderer.RenderSnippet(s.Snapshot())
}

// StartAutosave saves every interval while the source is non-blank, until
// ctx is done or the session is closed.
func (s *Session) StartAutosave(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed || s.autosave != nil {
		return
	}
	s.scheduleAutosaveLocked(ctx)
}

func (s *Session) scheduleAutosaveLocked(ctx context.Context) {
	s.autosave = s.clock.AfterFunc(s.interval, func() {
		if ctx.Err() != nil {
			return
		}
		if !s.Snapshot().Blank() {
			_ = s.Save(ctx)
		}

		s.mutex.Lock()
		defer s.mutex.Unlock()
		if !s.closed && ctx.Err() == nil {
			s.scheduleAutosaveLocked(ctx)
		}
	})
}

// Close stops autosave and pending renders and releases every handle.
func (s *Session) Close() {
	s.mutex.Lock()
	s.closed = true
	if s.autosave != nil {
		s.autosave.Stop()
		s.autosave = nil
	}
	s.mutex.Unlock()

	s.debounce.Cancel()
	if s.host != nil {
		s.host.Close()
	}
}

func (s *Session) renderNow(ctx context.Context) error {
	s.debounce.Cancel()
	return s.publish(ctx, s.Snapshot())
}

func (s *Session) publish(ctx context.Context, sn snippet.Snippet) error {
	op := logging.StartOperation(s.logger, "render")
	defer op.End(ctx)

	doc := s.renderer.RenderSnippet(sn)
	if s.host == nil {
		return nil
	}
	if _, err := s.host.Publish(ctx, doc); err != nil {
		s.logger.Error(ctx, err, "Failed to publish preview", "language", sn.Language.String())
		return err
	}
	return nil
}

func (s *Session) baseContext() context.Context {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.ctx
}
