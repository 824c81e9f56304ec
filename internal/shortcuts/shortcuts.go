// Package shortcuts maps editor key chords to playground actions and
// implements the in-editor indent behaviour.
package shortcuts

import (
	"strings"
	"unicode/utf8"
)

// Action is what a chord asks the playground to do.
type Action int

const (
	ActionNone Action = iota
	ActionRun
	ActionSave
	ActionIndent
)

func (a Action) String() string {
	switch a {
	case ActionRun:
		return "run"
	case ActionSave:
		return "save"
	case ActionIndent:
		return "indent"
	default:
		return "none"
	}
}

// Chord is a key press with its modifiers, as reported by the editor.
type Chord struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
}

// Command reports whether the platform command modifier (Ctrl or Cmd) is held.
func (c Chord) Command() bool { return c.Ctrl || c.Meta }

// Keymap resolves chords to actions.
type Keymap struct{}

// Resolve returns the action bound to c:
//
//	Ctrl/Cmd+Enter  run
//	Ctrl/Cmd+S      save
//	Tab             indent
func (Keymap) Resolve(c Chord) Action {
	switch {
	case c.Command() && c.Key == "Enter":
		return ActionRun
	case c.Command() && strings.EqualFold(c.Key, "s"):
		return ActionSave
	case c.Key == "Tab" && !c.Command() && !c.Shift && !c.Alt:
		return ActionIndent
	default:
		return ActionNone
	}
}

// Indent is inserted by the Tab key.
const Indent = "  "

// Buffer is the editor text with its selection. Offsets count characters
// (code points), the way the browser reports them for plain text.
type Buffer struct {
	Text           string `json:"text"`
	SelectionStart int    `json:"selection_start"`
	SelectionEnd   int    `json:"selection_end"`
}

// InsertIndent replaces the selection with Indent and collapses the caret
// just after it. Out-of-range offsets are clamped.
func (b Buffer) InsertIndent() Buffer {
	return b.Insert(Indent)
}

// Insert replaces the selection with s and places the caret after it.
func (b Buffer) Insert(s string) Buffer {
	runes := []rune(b.Text)
	start := clamp(b.SelectionStart, 0, len(runes))
	end := clamp(b.SelectionEnd, start, len(runes))

	var sb strings.Builder
	sb.Grow(len(b.Text) + len(s))
	sb.WriteString(string(runes[:start]))
	sb.WriteString(s)
	sb.WriteString(string(runes[end:]))

	caret := start + utf8.RuneCountInString(s)
	return Buffer{Text: sb.String(), SelectionStart: caret, SelectionEnd: caret}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
