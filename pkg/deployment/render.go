// Package deployment renders and checks the generated deployment
// files: the Compose configuration and the application config.ini.
package deployment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrUnresolved = errors.New("unresolved placeholder")
var ErrEmptyRender = errors.New("rendered file is empty")

// Lookup resolves one placeholder name. ok is false when the name is
// not known, which fails the render.
type Lookup func(name string) (value string, ok bool)

// Env is the Lookup backed by the process environment.
func Env(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Fallback chains lookups; later ones answer what earlier ones cannot.
func Fallback(lookups ...Lookup) Lookup {
	return func(name string) (string, bool) {
		for _, l := range lookups {
			if value, ok := l(name); ok {
				return value, ok
			}
		}
		return "", false
	}
}

// Substitute replaces every ${VAR} (and $VAR) placeholder in text.
//
// A placeholder lookup cannot resolve is a hard error, not an empty
// string: a generated config with holes should never reach a
// container. The error names every unresolved placeholder at once.
func Substitute(text string, lookup Lookup) (string, error) {
	missing := map[string]bool{}
	expanded := os.Expand(text, func(name string) string {
		value, ok := lookup(name)
		if !ok {
			missing[name] = true
			return ""
		}
		return value
	})

	if len(missing) != 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(names, ", "))
	}
	return expanded, nil
}

// RenderFile renders the template at src into dest.
//
// The output lands via a temp file and rename, so a failed render
// leaves no partial dest behind. An output with nothing but
// whitespace in it fails with ErrEmptyRender.
func RenderFile(src string, dest string, lookup Lookup) error {
	text, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	rendered, err := Substitute(string(text), lookup)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	if strings.TrimSpace(rendered) == "" {
		return fmt.Errorf("%s: %w", src, ErrEmptyRender)
	}

	if err := os.MkdirAll(filepath.Dir(dest), os.FileMode(0755)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".render-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(rendered); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(os.FileMode(0644)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
