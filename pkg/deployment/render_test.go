package deployment_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/comses/citation/pkg/deployment"
)

func lookup(vars map[string]string) deployment.Lookup {
	return func(name string) (string, bool) {
		value, ok := vars[name]
		return value, ok
	}
}

func TestSubstitute(t *testing.T) {
	type When struct {
		text string
		vars map[string]string
	}
	type Then struct {
		want string
		err  error
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			got, err := deployment.Substitute(when.text, lookup(when.vars))
			if !errors.Is(err, then.err) {
				t.Fatalf("want error %v, but got %v", then.err, err)
			}
			if then.err != nil {
				return
			}
			if got != then.want {
				t.Errorf("want %q, but got %q", then.want, got)
			}
		}
	}

	t.Run("every placeholder resolves", theory(
		When{
			text: "user: ${DB_USER}\npassword: ${DB_PASSWORD}\n",
			vars: map[string]string{"DB_USER": "citation", "DB_PASSWORD": "hunter2"},
		},
		Then{want: "user: citation\npassword: hunter2\n"},
	))

	t.Run("a placeholder may resolve to empty", theory(
		When{
			text: "base-url: ${BASE_URL}\n",
			vars: map[string]string{"BASE_URL": ""},
		},
		Then{want: "base-url: \n"},
	))

	t.Run("an unresolved placeholder is an error", theory(
		When{
			text: "user: ${DB_USER}\npassword: ${DB_PASSWORD}\n",
			vars: map[string]string{"DB_USER": "citation"},
		},
		Then{err: deployment.ErrUnresolved},
	))

	t.Run("the error names every unresolved placeholder", func(t *testing.T) {
		_, err := deployment.Substitute(
			"${DB_NAME} ${DB_USER} ${DB_NAME}", lookup(nil),
		)
		if !errors.Is(err, deployment.ErrUnresolved) {
			t.Fatalf("want ErrUnresolved, but got %v", err)
		}
		if want := "DB_NAME, DB_USER"; !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should name %q", err.Error(), want)
		}
	})

	t.Run("text without placeholders passes through", theory(
		When{text: "services:\n  db:\n    image: postgres:16\n"},
		Then{want: "services:\n  db:\n    image: postgres:16\n"},
	))
}

func TestFallback(t *testing.T) {
	t.Run("later lookups answer what earlier ones cannot", func(t *testing.T) {
		chained := deployment.Fallback(
			lookup(map[string]string{"A": "first"}),
			lookup(map[string]string{"A": "shadowed", "B": "second"}),
		)

		if got, ok := chained("A"); !ok || got != "first" {
			t.Errorf("want (first, true), but got (%q, %v)", got, ok)
		}
		if got, ok := chained("B"); !ok || got != "second" {
			t.Errorf("want (second, true), but got (%q, %v)", got, ok)
		}
		if _, ok := chained("C"); ok {
			t.Error("C should not resolve")
		}
	})
}

func TestRenderFile(t *testing.T) {
	t.Run("it renders a template into its destination", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "config.ini.template")
		dest := filepath.Join(dir, "out", "config.ini")
		if err := os.WriteFile(src, []byte("[database]\nuser = ${DB_USER}\n"), 0644); err != nil {
			t.Fatal(err)
		}

		err := deployment.RenderFile(src, dest, lookup(map[string]string{"DB_USER": "citation"}))
		if err != nil {
			t.Fatal(err)
		}

		got, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		if want := "[database]\nuser = citation\n"; string(got) != want {
			t.Errorf("want %q, but got %q", want, string(got))
		}
	})

	t.Run("a failed render leaves no partial destination", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "config.ini.template")
		dest := filepath.Join(dir, "config.ini")
		if err := os.WriteFile(src, []byte("user = ${DB_USER}\n"), 0644); err != nil {
			t.Fatal(err)
		}

		err := deployment.RenderFile(src, dest, lookup(nil))
		if !errors.Is(err, deployment.ErrUnresolved) {
			t.Fatalf("want ErrUnresolved, but got %v", err)
		}

		if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("dest should not exist: %v", err)
		}
		leftover, err := filepath.Glob(filepath.Join(dir, ".render-*"))
		if err != nil {
			t.Fatal(err)
		}
		if len(leftover) != 0 {
			t.Errorf("temp files left behind: %v", leftover)
		}
	})

	t.Run("an all-whitespace output is an error", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "empty.template")
		dest := filepath.Join(dir, "empty")
		if err := os.WriteFile(src, []byte("${BLANK}\n"), 0644); err != nil {
			t.Fatal(err)
		}

		err := deployment.RenderFile(src, dest, lookup(map[string]string{"BLANK": " "}))
		if !errors.Is(err, deployment.ErrEmptyRender) {
			t.Fatalf("want ErrEmptyRender, but got %v", err)
		}
	})

	t.Run("rendering replaces an existing destination atomically", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "config.ini.template")
		dest := filepath.Join(dir, "config.ini")
		if err := os.WriteFile(src, []byte("user = ${DB_USER}\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(dest, []byte("user = stale\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := deployment.RenderFile(src, dest, lookup(map[string]string{"DB_USER": "fresh"})); err != nil {
			t.Fatal(err)
		}

		got, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		if want := "user = fresh\n"; string(got) != want {
			t.Errorf("want %q, but got %q", want, string(got))
		}
	})
}
