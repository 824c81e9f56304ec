// Package storage implements the key-value persistence surface used for the
// saved snippet and the theme preference.
//
// Values are plain strings. A missing key is a valid state and is reported
// through the found flag, never as an error.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Keys written by the playground.
const (
	KeyCode     = "playground-code"
	KeyLanguage = "playground-language"
	KeyTheme    = "theme"
)

// KV is a string key-value store that survives across sessions.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the store for the named driver. The path is ignored by the
// memory driver.
func Open(ctx context.Context, driver, path string) (KV, error) {
	switch strings.ToLower(driver) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(path)
	case DriverSQLite:
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
