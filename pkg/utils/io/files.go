package io

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CreateAll creates a file with its parent directories, if missing.
//
// Note that dmod effects only newly-created directories; directories
// which have existed keep their mode.
func CreateAll(name string, fmod os.FileMode, dmod os.FileMode) (*os.File, error) {
	dirname := filepath.Dir(name)
	if err := os.MkdirAll(dirname, dmod); err != nil {
		return nil, err
	}

	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, fmod)
}

// DirCopy copies the regular files under src into dest, keeping the
// directory layout. dest is created if missing.
func DirCopy(src string, dest string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, os.FileMode(0755))
		}
		if !d.Type().IsRegular() {
			return nil
		}

		from, err := os.Open(p)
		if err != nil {
			return err
		}
		defer from.Close()

		to, err := CreateAll(target, os.FileMode(0644), os.FileMode(0755))
		if err != nil {
			return err
		}
		defer to.Close()

		_, err = io.Copy(to, from)
		return err
	})
}
