package io_test

import (
	"os"
	"path/filepath"
	"testing"

	kio "github.com/comses/citation/pkg/utils/io"
)

func TestDirCopy(t *testing.T) {
	t.Run("it copies regular files keeping the layout", func(t *testing.T) {
		src := t.TempDir()
		dest := filepath.Join(t.TempDir(), "copied")

		if err := os.MkdirAll(filepath.Join(src, "sub"), os.FileMode(0755)); err != nil {
			t.Fatal(err)
		}
		for name, content := range map[string]string{
			"schema.sql":       "create table publication ();",
			"sub/versions.sql": "insert into schema_version values (1);",
		} {
			err := os.WriteFile(filepath.Join(src, name), []byte(content), os.FileMode(0644))
			if err != nil {
				t.Fatal(err)
			}
		}

		if err := kio.DirCopy(src, dest); err != nil {
			t.Fatal(err)
		}

		for name, content := range map[string]string{
			"schema.sql":       "create table publication ();",
			"sub/versions.sql": "insert into schema_version values (1);",
		} {
			actual, err := os.ReadFile(filepath.Join(dest, name))
			if err != nil {
				t.Fatal(err)
			}
			if string(actual) != content {
				t.Errorf("unmatch %s: (actual, expected) = (%s, %s)", name, actual, content)
			}
		}
	})

	t.Run("when the source does not exist, it returns error", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "no-such-dir")
		if err := kio.DirCopy(missing, t.TempDir()); err == nil {
			t.Error("no error is returned")
		}
	})
}
