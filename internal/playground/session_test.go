package playground

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/console"
	perrors "github.com/conneroisu/codeplay/internal/errors"
	"github.com/conneroisu/codeplay/internal/preview"
	"github.com/conneroisu/codeplay/internal/sandbox"
	"github.com/conneroisu/codeplay/internal/shortcuts"
	"github.com/conneroisu/codeplay/internal/snippet"
	"github.com/conneroisu/codeplay/internal/storage"
)

var epoch = time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)

type countingSurface struct {
	urls []string
}

func (c *countingSurface) Show(url string) { c.urls = append(c.urls, url) }

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("unavailable")
}
func (brokenKV) Set(context.Context, string, string) error { return errors.New("read-only") }
func (brokenKV) Close() error                              { return nil }

type fixture struct {
	session *Session
	clock   *clock.Fake
	kv      storage.KV
	store   *sandbox.MemoryStore
	host    *sandbox.Host
	surface *countingSurface
	view    *console.LogView
}

func newFixture(t *testing.T, kv storage.KV) *fixture {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryStore()
	}

	clk := clock.NewFake(epoch)
	resources := sandbox.NewMemoryStore(clk)
	surface := &countingSurface{}
	host := sandbox.NewHost(resources, surface, sandbox.HostConfig{Clock: clk})
	view := console.NewLogView(console.DefaultLimit)

	s := New(Deps{
		Store:    snippet.NewStore(kv),
		Renderer: preview.NewRenderer(preview.DefaultOptions()),
		Host:     host,
		Console:  console.NewBridge(nil, view, clk),
	}, Config{Clock: clk})
	t.Cleanup(s.Close)

	return &fixture{session: s, clock: clk, kv: kv, store: resources, host: host, surface: surface, view: view}
}

func (f *fixture) displayed(t *testing.T) string {
	t.Helper()
	h, ok := f.host.Current()
	require.True(t, ok)
	res, ok := f.store.Get(h.ID)
	require.True(t, ok)
	return string(res.Body)
}

func (f *fixture) messages() []string {
	var out []string
	for _, e := range f.view.Entries() {
		out = append(out, e.Message)
	}
	return out
}

func TestStartRendersDefaultAndGreets(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.session.Start(context.Background()))

	assert.Equal(t, snippet.Default(), f.session.Snapshot())
	assert.Len(t, f.surface.urls, 1)
	assert.Equal(t, snippet.Default().Source, f.displayed(t))
	assert.Equal(t, []string{MsgWelcome, MsgTip}, f.messages())
}

func TestStartRestoresSavedSnippet(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, snippet.NewStore(kv).Save(ctx, snippet.Snippet{Source: "h1 { color: red; }", Language: snippet.LanguageStyles}))

	f := newFixture(t, kv)
	require.NoError(t, f.session.Start(ctx))

	assert.Equal(t, snippet.LanguageStyles, f.session.Snapshot().Language)
	assert.Contains(t, f.displayed(t), "<style>\nh1 { color: red; }")
}

func TestEditBurstRendersOnce(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.session.Start(context.Background()))
	shown := len(f.surface.urls)

	f.session.Edit("<p>a</p>")
	f.clock.Advance(200 * time.Millisecond)
	f.session.Edit("<p>ab</p>")
	f.clock.Advance(200 * time.Millisecond)
	f.session.Edit("<p>abc</p>")

	f.clock.Advance(499 * time.Millisecond)
	assert.Len(t, f.surface.urls, shown)

	f.clock.Advance(time.Millisecond)
	assert.Len(t, f.surface.urls, shown+1)
	assert.Equal(t, "<p>abc</p>", f.displayed(t))

	f.clock.Advance(time.Minute)
	assert.Len(t, f.surface.urls, shown+1)
}

func TestPendingRenderUsesLanguageChosenDuringQuietPeriod(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.session.Start(context.Background()))

	f.session.Edit("h1 { color: red; }")
	f.clock.Advance(100 * time.Millisecond)
	f.session.SetLanguage(snippet.LanguageStyles)
	f.clock.Advance(500 * time.Millisecond)

	assert.Equal(t, snippet.LanguageStyles, f.session.Snapshot().Language)
	assert.Contains(t, f.displayed(t), "<style>\nh1 { color: red; }")
}

func TestPendingRenderIncludesIndentDuringQuietPeriod(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	f.session.Edit("<p>a</p>")
	_, _, err := f.session.HandleChord(ctx,
		shortcuts.Chord{Key: "Tab"},
		shortcuts.Buffer{Text: "<p>a</p>"})
	require.NoError(t, err)
	f.clock.Advance(500 * time.Millisecond)

	assert.Equal(t, "  <p>a</p>", f.session.Snapshot().Source)
	assert.Equal(t, "  <p>a</p>", f.displayed(t))
}

func TestRunRendersNowAndDropsPendingRender(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))
	shown := len(f.surface.urls)

	f.session.Edit("<b>now</b>")
	require.NoError(t, f.session.Run(ctx))
	assert.Len(t, f.surface.urls, shown+1)
	assert.Equal(t, "<b>now</b>", f.displayed(t))

	f.clock.Advance(time.Second)
	assert.Len(t, f.surface.urls, shown+1)
	assert.Contains(t, f.messages(), MsgExecuted)
}

func TestUnreleasedHandlesStayBounded(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	for i := 0; i < 50; i++ {
		f.session.Edit(fmt.Sprintf("<p>%d</p>", i))
		f.clock.Advance(time.Duration(i%4) * 300 * time.Millisecond)
		require.NoError(t, f.session.Refresh(ctx))
		assert.LessOrEqual(t, f.host.Unreleased(), 2)
	}
}

func TestSavePersistsBothKeys(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	f.session.SetLanguage(snippet.LanguageScript)
	f.session.Edit("console.log(1)")
	require.NoError(t, f.session.Save(ctx))

	code, ok, err := f.kv.Get(ctx, storage.KeyCode)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "console.log(1)", code)

	lang, _, _ := f.kv.Get(ctx, storage.KeyLanguage)
	assert.Equal(t, "javascript", lang)
	assert.Contains(t, f.messages(), MsgSaved)
}

func TestSaveFailureIsReported(t *testing.T) {
	f := newFixture(t, brokenKV{})
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	assert.Equal(t, snippet.Default(), f.session.Snapshot(), "read failures look like absence")

	err := f.session.Save(ctx)
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.ErrorTypeStorage))

	entries := f.view.Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, console.LevelError, last.Level)
	assert.True(t, strings.HasPrefix(last.Message, "Save failed:"))
}

func TestLoadTemplate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	require.NoError(t, f.session.LoadTemplate(ctx, "css-animation"))
	sn := f.session.Snapshot()
	assert.Equal(t, snippet.LanguageStyles, sn.Language)
	assert.Contains(t, sn.Source, "@keyframes float")
	assert.Contains(t, f.displayed(t), "@keyframes float")
	assert.Contains(t, f.messages(), "Loaded template: css-animation")

	shown := len(f.surface.urls)
	err := f.session.LoadTemplate(ctx, "nope")
	assert.True(t, perrors.IsNotFound(err))
	assert.Equal(t, sn, f.session.Snapshot())
	assert.Len(t, f.surface.urls, shown)
}

func TestClear(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	require.NoError(t, f.session.Clear(ctx))
	assert.Equal(t, "", f.session.Snapshot().Source)
	assert.Equal(t, "", f.displayed(t))
	assert.Contains(t, f.messages(), MsgCleared)
}

func TestUnknownLanguageRendersEmpty(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	f.session.SetLanguage(snippet.ParseLanguage("python"))
	require.NoError(t, f.session.Refresh(ctx))
	assert.Equal(t, "", f.displayed(t))
	assert.Contains(t, f.messages(), MsgRefreshed)
}

func TestHandleChordIndentDoesNotRender(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))
	shown := len(f.surface.urls)

	action, buf, err := f.session.HandleChord(ctx,
		shortcuts.Chord{Key: "Tab"},
		shortcuts.Buffer{Text: "ab", SelectionStart: 1, SelectionEnd: 1})
	require.NoError(t, err)

	assert.Equal(t, shortcuts.ActionIndent, action)
	assert.Equal(t, shortcuts.Buffer{Text: "a  b", SelectionStart: 3, SelectionEnd: 3}, buf)
	assert.Equal(t, "a  b", f.session.Snapshot().Source)

	f.clock.Advance(time.Second)
	assert.Len(t, f.surface.urls, shown)
}

func TestHandleChordRunAndSave(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	action, _, err := f.session.HandleChord(ctx, shortcuts.Chord{Key: "Enter", Meta: true}, shortcuts.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, shortcuts.ActionRun, action)

	action, _, err = f.session.HandleChord(ctx, shortcuts.Chord{Key: "s", Ctrl: true}, shortcuts.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, shortcuts.ActionSave, action)

	assert.Subset(t, f.messages(), []string{MsgExecuted, MsgSaved})
}

func TestDownloadFilenames(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"html", "galaxy-code.html"},
		{"css", "galaxy-code.css"},
		{"javascript", "galaxy-code.js"},
		{"react", "galaxy-code.jsx"},
		{"python", "galaxy-code.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			f := newFixture(t, nil)
			f.session.SetLanguage(snippet.ParseLanguage(tt.lang))
			f.session.Edit("body")

			d := f.session.Download()
			assert.Equal(t, tt.want, d.Filename)
			assert.Equal(t, []byte("body"), d.Content)
			assert.Contains(t, f.messages(), MsgDownload+" "+tt.want)
		})
	}
}

func TestAutosave(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.session.Start(ctx))

	f.session.Edit("   ")
	f.session.StartAutosave(ctx)

	f.clock.Advance(DefaultAutosaveInterval)
	_, found, _ := f.kv.Get(ctx, storage.KeyCode)
	assert.False(t, found, "blank source is not autosaved")

	f.session.Edit("<p>keep</p>")
	f.clock.Advance(DefaultAutosaveInterval)
	code, found, _ := f.kv.Get(ctx, storage.KeyCode)
	assert.True(t, found)
	assert.Equal(t, "<p>keep</p>", code)

	f.session.Close()
	f.session.Edit("<p>after close</p>")
	f.clock.Advance(2 * DefaultAutosaveInterval)
	code, _, _ = f.kv.Get(ctx, storage.KeyCode)
	assert.Equal(t, "<p>keep</p>", code)
}

func TestLogViewBoundThroughSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	for i := 0; i < 150; i++ {
		require.NoError(t, f.session.Run(ctx))
	}
	assert.Equal(t, console.DefaultLimit, f.view.Len())
}

type scriptedSource struct {
	events  []Event
	replies []Reply
}

func (s *scriptedSource) Next(context.Context) (Event, error) {
	if len(s.events) == 0 {
		return Event{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *scriptedSource) Reply(_ context.Context, r Reply) error {
	s.replies = append(s.replies, r)
	return nil
}

func TestServeAppliesEvents(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	src := &scriptedSource{events: []Event{
		{Type: EventLanguage, Language: "javascript"},
		{Type: EventEdit, Text: "console.log('hi')"},
		{Type: EventRun},
		{Type: EventChord, Chord: &shortcuts.Chord{Key: "Tab"}, Buffer: &shortcuts.Buffer{Text: "x", SelectionStart: 1, SelectionEnd: 1}},
		{Type: EventTemplate, Template: "missing"},
		{Type: EventTemplate, Template: "html-basic"},
		{Type: "bogus"},
		{Type: EventSave},
	}}

	require.NoError(t, f.session.Serve(ctx, src))

	require.Len(t, src.replies, 4)
	assert.Equal(t, "buffer", src.replies[0].Type)
	assert.Equal(t, "x  ", src.replies[0].Buffer.Text)
	assert.Equal(t, "error", src.replies[1].Type)
	assert.Equal(t, "snippet", src.replies[2].Type)
	assert.Equal(t, "html", src.replies[2].Lang)
	assert.Equal(t, "error", src.replies[3].Type)

	assert.Equal(t, snippet.LanguageMarkup, f.session.Snapshot().Language)
	assert.Contains(t, f.messages(), MsgExecuted)
	assert.Contains(t, f.messages(), MsgSaved)
}

func TestChordEventWithoutChord(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.session.HandleEvent(context.Background(), Event{Type: EventChord})
	assert.True(t, perrors.IsType(err, perrors.ErrorTypeValidation))
}
