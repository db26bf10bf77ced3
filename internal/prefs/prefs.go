// Package prefs holds process-wide display preferences.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gastos/internal/ports"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultTheme applies until a preference is saved.
const DefaultTheme = ThemeSystem

const themeKey = "theme"

var ErrInvalidTheme = errors.New("invalid theme")

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q (expected light, dark or system)", ErrInvalidTheme, s)
	}
}

// IsDark resolves t against the host's dark mode setting.
func IsDark(t Theme, systemDark bool) bool {
	switch t {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	default:
		return systemDark
	}
}

// Preferences is initialised once with Load and changed only through
// SetTheme.
type Preferences struct {
	store ports.SettingsStore

	mu    sync.RWMutex
	theme Theme
}

func New(store ports.SettingsStore) *Preferences {
	return &Preferences{store: store, theme: DefaultTheme}
}

// Load reads the persisted theme. A missing or unrecognised value leaves the
// default in place.
func (p *Preferences) Load(ctx context.Context) error {
	v, ok, err := p.store.GetSetting(ctx, themeKey)
	if err != nil {
		return fmt.Errorf("load theme: %w", err)
	}
	theme := DefaultTheme
	if ok {
		if t, err := ParseTheme(v); err == nil {
			theme = t
		}
	}
	p.mu.Lock()
	p.theme = theme
	p.mu.Unlock()
	return nil
}

func (p *Preferences) Theme() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

// SetTheme persists t and then makes it current.
func (p *Preferences) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	if err := p.store.PutSetting(ctx, themeKey, string(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	p.mu.Lock()
	p.theme = t
	p.mu.Unlock()
	return nil
}
