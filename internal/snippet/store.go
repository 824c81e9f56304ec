package snippet

import (
	"context"

	"github.com/conneroisu/codeplay/internal/errors"
	"github.com/conneroisu/codeplay/internal/storage"
)

// Store loads and saves the snippet through a key-value persistence surface.
type Store struct {
	kv storage.KV
}

// NewStore creates a snippet store over kv.
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the saved snippet, or Default when no source was saved.
// Read failures and an empty saved source are indistinguishable from absence. The saved language is
// only applied together with saved source so the fallback stays a coherent
// markup snippet.
func (s *Store) Load(ctx context.Context) Snippet {
	code, found, err := s.kv.Get(ctx, storage.KeyCode)
	if err != nil || !found || code == "" {
		return Default()
	}

	loaded := Snippet{Source: code, Language: LanguageMarkup}
	if name, found, err := s.kv.Get(ctx, storage.KeyLanguage); err == nil && found {
		loaded.Language = ParseLanguage(name)
	}
	return loaded
}

// Save writes both the source and the language.
func (s *Store) Save(ctx context.Context, sn Snippet) error {
	if err := s.kv.Set(ctx, storage.KeyCode, sn.Source); err != nil {
		return errors.WrapStorage(err, "SNIPPET_SAVE", "saving source")
	}
	if err := s.kv.Set(ctx, storage.KeyLanguage, sn.Language.String()); err != nil {
		return errors.WrapStorage(err, "SNIPPET_SAVE", "saving language")
	}
	return nil
}
