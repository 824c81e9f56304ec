package shortcuts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeymapResolve(t *testing.T) {
	tests := []struct {
		name  string
		chord Chord
		want  Action
	}{
		{"ctrl enter runs", Chord{Key: "Enter", Ctrl: true}, ActionRun},
		{"cmd enter runs", Chord{Key: "Enter", Meta: true}, ActionRun},
		{"plain enter does nothing", Chord{Key: "Enter"}, ActionNone},
		{"ctrl s saves", Chord{Key: "s", Ctrl: true}, ActionSave},
		{"cmd S saves", Chord{Key: "S", Meta: true}, ActionSave},
		{"plain s types", Chord{Key: "s"}, ActionNone},
		{"tab indents", Chord{Key: "Tab"}, ActionIndent},
		{"shift tab is left alone", Chord{Key: "Tab", Shift: true}, ActionNone},
		{"ctrl tab is left alone", Chord{Key: "Tab", Ctrl: true}, ActionNone},
		{"other keys", Chord{Key: "a", Ctrl: true}, ActionNone},
	}

	var km Keymap
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, km.Resolve(tt.chord))
		})
	}
}

func TestInsertIndent(t *testing.T) {
	tests := []struct {
		name string
		in   Buffer
		want Buffer
	}{
		{
			name: "caret in the middle",
			in:   Buffer{Text: "ab", SelectionStart: 1, SelectionEnd: 1},
			want: Buffer{Text: "a  b", SelectionStart: 3, SelectionEnd: 3},
		},
		{
			name: "replaces selection",
			in:   Buffer{Text: "hello world", SelectionStart: 5, SelectionEnd: 11},
			want: Buffer{Text: "hello  ", SelectionStart: 7, SelectionEnd: 7},
		},
		{
			name: "empty buffer",
			in:   Buffer{},
			want: Buffer{Text: "  ", SelectionStart: 2, SelectionEnd: 2},
		},
		{
			name: "clamps offsets",
			in:   Buffer{Text: "xy", SelectionStart: -3, SelectionEnd: 99},
			want: Buffer{Text: "  ", SelectionStart: 2, SelectionEnd: 2},
		},
		{
			name: "counts code points",
			in:   Buffer{Text: "日本語", SelectionStart: 1, SelectionEnd: 1},
			want: Buffer{Text: "日  本語", SelectionStart: 3, SelectionEnd: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.InsertIndent())
		})
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "run", ActionRun.String())
	assert.Equal(t, "save", ActionSave.String())
	assert.Equal(t, "indent", ActionIndent.String())
	assert.Equal(t, "none", ActionNone.String())
}
