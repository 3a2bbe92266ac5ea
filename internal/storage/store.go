// Package storage lays out sweep run directories on disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/matsengrp/antigen/internal/config"
	"github.com/matsengrp/antigen/internal/ctxlog"
	"github.com/matsengrp/antigen/internal/sweep"
)

const dirPerm = 0755

// Materializer creates run directories below a root and writes one
// merged parameter file into each. Writing is last-writer-wins: an
// existing parameter file is replaced without a backup.
type Materializer struct {
	root       string
	configName string
	runs       int
}

// New returns a Materializer rooted at root. An empty configName means
// config.DefaultFileName; runs below one is treated as one.
func New(root, configName string, runs int) *Materializer {
	if root == "" {
		root = "."
	}
	if configName == "" {
		configName = config.DefaultFileName
	}
	if runs < 1 {
		runs = 1
	}
	return &Materializer{root: root, configName: configName, runs: runs}
}

func (m *Materializer) Root() string { return m.root }

func (m *Materializer) Runs() int { return m.runs }

func (m *Materializer) Init() error {
	return m.EnsureDirectory("")
}

// EnsureDirectory creates dir below the root, with any missing parents.
// An existing directory is not an error.
func (m *Materializer) EnsureDirectory(dir string) error {
	path := filepath.Join(m.root, dir)
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return &config.IOError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

// RunDirs lists the directories, relative to the root, that receive a
// parameter file for the run directory dir: dir itself for a single run,
// or its numbered sub-directories 0 … runs-1.
func (m *Materializer) RunDirs(dir string) []string {
	if m.runs == 1 {
		return []string{dir}
	}
	out := make([]string, m.runs)
	for i := range out {
		out[i] = filepath.Join(dir, strconv.Itoa(i))
	}
	return out
}

// ConfigPath is the parameter file path of a directory below the root.
func (m *Materializer) ConfigPath(dir string) string {
	return filepath.Join(m.root, dir, m.configName)
}

// WriteConfig writes base overridden by c into dir's parameter file.
func (m *Materializer) WriteConfig(dir string, base *config.Document, c sweep.Combination) (string, error) {
	return m.writeDocument(dir, c.Apply(base))
}

// writeDocument dumps an already merged document into dir's parameter file.
func (m *Materializer) writeDocument(dir string, doc *config.Document) (string, error) {
	path := m.ConfigPath(dir)
	if err := config.Dump(doc, path); err != nil {
		return "", err
	}
	return path, nil
}

// Materialize creates the directories of e and writes identical merged
// parameter files into each of them. It returns the written paths.
func (m *Materializer) Materialize(ctx context.Context, e sweep.Entry, base *config.Document) ([]string, error) {
	log := ctxlog.FromContext(ctx)
	merged := e.Combination.Apply(base)

	written := make([]string, 0, m.runs)
	for _, dir := range m.RunDirs(e.Dir) {
		if err := m.EnsureDirectory(dir); err != nil {
			return written, err
		}

		path := m.ConfigPath(dir)
		if _, err := os.Stat(path); err == nil {
			log.Debug("replacing existing parameters", "path", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return written, &config.IOError{Op: "stat", Path: path, Err: err}
		}

		if _, err := m.writeDocument(dir, merged); err != nil {
			return written, err
		}
		log.Info("parameters written", "path", path, "combination", e.Combination.String())
		written = append(written, path)
	}
	return written, nil
}

// Exists reports whether every parameter file of e is present.
func (m *Materializer) Exists(e sweep.Entry) (bool, error) {
	for _, dir := range m.RunDirs(e.Dir) {
		_, err := os.Stat(m.ConfigPath(dir))
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("check %s: %w", dir, err)
		}
	}
	return true, nil
}
