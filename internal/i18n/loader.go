// Package i18n provides the translation-bundle cache, cross-locale
// validation, and per-request locale configuration for the site.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Messages is one locale's translation bundle: a nested mapping of
// namespace -> key -> string. Bundles are immutable after load and replaced
// wholesale, never patched in place.
type Messages map[string]interface{}

// Loader loads the message bundle for one locale. Implementations must return
// an error for unknown locales rather than substituting another locale's data.
type Loader interface {
	Load(ctx context.Context, locale string) (Messages, error)
}

// FileLoader reads bundles from <dir>/<locale>.json or <dir>/<locale>.yaml.
type FileLoader struct {
	dir string
}

// NewFileLoader creates a loader over a locales directory.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

// Load reads and parses the bundle file for locale.
func (l *FileLoader) Load(_ context.Context, locale string) (Messages, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(l.dir, locale+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("i18n: read bundle %s: %w", path, err)
		}

		var m Messages
		if ext == ".json" {
			if err := json.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("i18n: parse bundle %s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("i18n: parse bundle %s: %w", path, err)
			}
		}
		if m == nil {
			m = Messages{}
		}
		return m, nil
	}
	return nil, fmt.Errorf("i18n: no bundle for locale %q in %s", locale, l.dir)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, locale string) (Messages, error)

func (f LoaderFunc) Load(ctx context.Context, locale string) (Messages, error) {
	return f(ctx, locale)
}
