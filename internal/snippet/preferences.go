package snippet

import (
	"context"

	"github.com/conneroisu/codeplay/internal/errors"
	"github.com/conneroisu/codeplay/internal/storage"
)

// Theme is the persisted colour scheme preference of the site.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences reads and writes site-wide preferences.
type Preferences struct {
	kv storage.KV
}

// NewPreferences creates preferences over kv.
func NewPreferences(kv storage.KV) *Preferences {
	return &Preferences{kv: kv}
}

// Theme returns the saved theme, ThemeLight when absent or unreadable.
func (p *Preferences) Theme(ctx context.Context) Theme {
	v, found, err := p.kv.Get(ctx, storage.KeyTheme)
	if err != nil || !found || Theme(v) != ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// SetTheme persists t. Anything but dark is stored as light.
func (p *Preferences) SetTheme(ctx context.Context, t Theme) error {
	if t != ThemeDark {
		t = ThemeLight
	}
	return errors.WrapStorage(p.kv.Set(ctx, storage.KeyTheme, string(t)), "THEME_SAVE", "saving theme")
}

// ToggleTheme flips the theme and returns the new value.
func (p *Preferences) ToggleTheme(ctx context.Context) (Theme, error) {
	next := ThemeDark
	if p.Theme(ctx) == ThemeDark {
		next = ThemeLight
	}
	if err := p.SetTheme(ctx, next); err != nil {
		return p.Theme(ctx), err
	}
	return next, nil
}
