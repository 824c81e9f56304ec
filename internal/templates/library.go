// Package templates holds the canned snippets offered to seed the editor.
package templates

import (
	"sort"
	"strings"

	"github.com/conneroisu/codeplay/internal/errors"
	"github.com/conneroisu/codeplay/internal/snippet"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Template is an immutable named snippet.
type Template struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Language snippet.Language `json:"language" yaml:"language"`
	Body     string           `json:"body" yaml:"body"`
}

// Snippet returns the template as an editor snippet.
func (t Template) Snippet() snippet.Snippet {
	return snippet.Snippet{Source: t.Body, Language: t.Language}
}

// Library is a fixed id -> template lookup.
type Library struct {
	byID map[string]Template
	ids  []string
}

// NewLibrary builds a library from templates, deriving display names from
// ids when a name is not given. Later duplicates replace earlier ones.
func NewLibrary(tmpls ...Template) *Library {
	titler := cases.Title(language.English)
	lib := &Library{byID: make(map[string]Template, len(tmpls))}
	for _, t := range tmpls {
		if t.Name == "" {
			t.Name = titler.String(strings.ReplaceAll(t.ID, "-", " "))
		}
		if _, dup := lib.byID[t.ID]; !dup {
			lib.ids = append(lib.ids, t.ID)
		}
		lib.byID[t.ID] = t
	}
	sort.Strings(lib.ids)
	return lib
}

// Builtin returns the library shipped with the playground.
func Builtin() *Library {
	return NewLibrary(
		Template{ID: "html-basic", Language: snippet.LanguageMarkup, Body: htmlBasic},
		Template{ID: "css-animation", Language: snippet.LanguageStyles, Body: cssAnimation},
		Template{ID: "js-interactive", Language: snippet.LanguageScript, Body: jsInteractive},
		Template{ID: "react-component", Language: snippet.LanguageComponent, Body: reactComponent},
		Template{ID: "galaxy-theme", Language: snippet.LanguageMarkup, Body: galaxyTheme},
	)
}

// Get looks a template up by id.
func (l *Library) Get(id string) (Template, error) {
	t, ok := l.byID[id]
	if !ok {
		return Template{}, errors.NewNotFoundError("TEMPLATE_NOT_FOUND", "template "+id+" not found").
			WithContext("id", id)
	}
	return t, nil
}

// List returns all templates ordered by id.
func (l *Library) List() []Template {
	out := make([]Template, 0, len(l.ids))
	for _, id := range l.ids {
		out = append(out, l.byID[id])
	}
	return out
}
