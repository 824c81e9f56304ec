package playground

import (
	"context"
	"io"

	"github.com/conneroisu/codeplay/internal/errors"
	"github.com/conneroisu/codeplay/internal/shortcuts"
	"github.com/conneroisu/codeplay/internal/snippet"
)

// EventType names a user interaction.
type EventType string

const (
	EventEdit     EventType = "edit"
	EventChord    EventType = "chord"
	EventLanguage EventType = "language"
	EventTemplate EventType = "template"
	EventRun      EventType = "run"
	EventSave     EventType = "save"
	EventClear    EventType = "clear"
	EventRefresh  EventType = "refresh"
)

// Event is one interaction delivered to the session.
type Event struct {
	Type     EventType         `json:"type"`
	Text     string            `json:"text,omitempty"`
	Chord    *shortcuts.Chord  `json:"chord,omitempty"`
	Buffer   *shortcuts.Buffer `json:"buffer,omitempty"`
	Language string            `json:"language,omitempty"`
	Template string            `json:"template,omitempty"`
}

// Reply is sent back to the event's origin when the session changed the
// editor contents on its behalf.
type Reply struct {
	Type   string            `json:"type"`
	Action string            `json:"action,omitempty"`
	Buffer *shortcuts.Buffer `json:"buffer,omitempty"`
	Source string            `json:"source,omitempty"`
	Lang   string            `json:"language,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// EventSource delivers events until it returns io.EOF.
type EventSource interface {
	Next(ctx context.Context) (Event, error)
}

// Replier is implemented by sources that can answer the client.
type Replier interface {
	Reply(ctx context.Context, r Reply) error
}

// HandleEvent applies ev. The reply is nil when the client needs no update.
func (s *Session) HandleEvent(ctx context.Context, ev Event) (*Reply, error) {
	switch ev.Type {
	case EventEdit:
		s.Edit(ev.Text)
		return nil, nil
	case EventLanguage:
		s.SetLanguage(snippet.ParseLanguage(ev.Language))
		return nil, nil
	case EventRun:
		return nil, s.Run(ctx)
	case EventSave:
		return nil, s.Save(ctx)
	case EventRefresh:
		return nil, s.Refresh(ctx)
	case EventClear:
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return s.editorReply(), nil
	case EventTemplate:
		if err := s.LoadTemplate(ctx, ev.Template); err != nil {
			return nil, err
		}
		return s.editorReply(), nil
	case EventChord:
		if ev.Chord == nil {
			return nil, errors.NewValidationError("EVENT_CHORD", "chord event without a chord")
		}
		var buf shortcuts.Buffer
		if ev.Buffer != nil {
			buf = *ev.Buffer
		}
		action, next, err := s.HandleChord(ctx, *ev.Chord, buf)
		if err != nil {
			return nil, err
		}
		if action != shortcuts.ActionIndent {
			return nil, nil
		}
		return &Reply{Type: "buffer", Action: action.String(), Buffer: &next}, nil
	default:
		return nil, errors.NewValidationError("EVENT_TYPE", "unknown event type "+string(ev.Type)).
			WithContext("type", ev.Type)
	}
}

func (s *Session) editorReply() *Reply {
	sn := s.Snapshot()
	return &Reply{Type: "snippet", Source: sn.Source, Lang: sn.Language.String()}
}

// Serve handles events from src until it is exhausted or ctx is done.
// Recoverable errors are logged and reported back; others end the loop.
func (s *Session) Serve(ctx context.Context, src EventSource) error {
	replier, _ := src.(Replier)

	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		reply, err := s.HandleEvent(ctx, ev)
		if err != nil {
			if !errors.IsRecoverable(err) {
				return err
			}
			s.logger.Warn(ctx, err, "Event failed", "type", string(ev.Type))
			reply = &Reply{Type: "error", Error: err.Error()}
		}

		if reply != nil && replier != nil {
			if err := replier.Reply(ctx, *reply); err != nil {
				return err
			}
		}
	}
}
