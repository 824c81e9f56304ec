// Package snippet holds the user-authored source text, its target language
// and their persistence.
package snippet

import "strings"

// Language is the closed set of targets a snippet can be rendered for.
type Language int

const (
	// LanguageUnknown is what an unrecognized name parses to. It renders as
	// an empty document and downloads as .txt.
	LanguageUnknown Language = iota
	LanguageMarkup
	LanguageStyles
	LanguageScript
	LanguageComponent
)

// Languages lists the supported languages in display order.
var Languages = []Language{LanguageMarkup, LanguageStyles, LanguageScript, LanguageComponent}

var languageNames = map[Language]string{
	LanguageMarkup:    "html",
	LanguageStyles:    "css",
	LanguageScript:    "javascript",
	LanguageComponent: "react",
}

var languageExtensions = map[Language]string{
	LanguageMarkup:    "html",
	LanguageStyles:    "css",
	LanguageScript:    "js",
	LanguageComponent: "jsx",
}

// String returns the persisted name of the language.
func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return "unknown"
}

// Supported reports whether l is one of the four real targets.
func (l Language) Supported() bool {
	_, ok := languageNames[l]
	return ok
}

// Extension returns the download file extension, "txt" when unmapped.
func (l Language) Extension() string {
	if ext, ok := languageExtensions[l]; ok {
		return ext
	}
	return "txt"
}

// ParseLanguage maps a persisted or wire name to a Language. A few aliases
// are accepted; anything else is LanguageUnknown.
func ParseLanguage(name string) Language {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "html", "markup":
		return LanguageMarkup
	case "css", "styles":
		return LanguageStyles
	case "javascript", "js", "script":
		return LanguageScript
	case "react", "jsx", "component":
		return LanguageComponent
	default:
		return LanguageUnknown
	}
}

// MarshalText encodes the language by name.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a language name; unknown names are not an error.
func (l *Language) UnmarshalText(text []byte) error {
	*l = ParseLanguage(string(text))
	return nil
}
