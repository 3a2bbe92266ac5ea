// Package config reads and writes simulator parameter files.
//
// A parameter file is a YAML mapping. It is held in memory as an ordered
// [Document] of tagged [Value]s so that key order, and the distinction
// between 1, 1.0 and "1", survive a load/dump round trip.
package config

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultFileName is the file name the simulator reads its parameters from.
const DefaultFileName = "parameters.yml"

const filePerm = 0644

// Load reads and parses the document at path. A file that cannot be read
// yields an *IOError; one that cannot be parsed yields a *ParseError.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	doc, err := Decode(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Dump writes doc to path, replacing any previous file. The bytes are
// written to a temporary file in the same directory and renamed into
// place, so readers never observe a partially written document.
func Dump(doc *Document, path string) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte) error {
	return writeFileAtomic(path, data, filePerm)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err = f.Sync(); err != nil {
		return &IOError{Op: "sync", Path: path, Err: err}
	}
	if err = f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	if err = os.Chmod(tmp, perm); err != nil {
		return &IOError{Op: "chmod", Path: path, Err: err}
	}
	if err = os.Rename(tmp, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
