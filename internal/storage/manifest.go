package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/matsengrp/antigen/internal/config"
	"github.com/matsengrp/antigen/internal/sweep"
)

// DefaultManifestName is the manifest file written at the sweep root.
const DefaultManifestName = "sweep.yml"

// manifestSpace namespaces manifest ids so they never clash with other
// name-based UUIDs.
var manifestSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matsengrp/antigen/sweep"))

// Manifest records what a sweep produced. Its ID is derived from the
// inputs, so re-running an unchanged sweep rewrites an identical file.
type Manifest struct {
	ID          string          `yaml:"id"`
	Base        string          `yaml:"base"`
	Edits       string          `yaml:"edits"`
	ConfigName  string          `yaml:"config_name"`
	Runs        int             `yaml:"runs"`
	Directories []ManifestEntry `yaml:"directories"`
}

type ManifestEntry struct {
	Dir        string           `yaml:"dir"`
	Parameters *config.Document `yaml:"parameters"`
}

// NewManifest describes plan as materialized by m from the given sources.
func NewManifest(baseSource, editsSource string, base *config.Document, plan *sweep.Plan, m *Materializer) (*Manifest, error) {
	seed, err := config.Encode(base)
	if err != nil {
		return nil, err
	}

	man := &Manifest{
		Base:        baseSource,
		Edits:       editsSource,
		ConfigName:  m.configName,
		Runs:        m.runs,
		Directories: make([]ManifestEntry, 0, plan.Len()),
	}
	for e := range plan.All() {
		man.Directories = append(man.Directories, ManifestEntry{
			Dir:        e.Dir,
			Parameters: e.Combination.Document(),
		})
	}

	body, err := yaml.Marshal(man)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	man.ID = uuid.NewSHA1(manifestSpace, append(seed, body...)).String()
	return man, nil
}

// WriteManifest writes man to name below the root.
func (m *Materializer) WriteManifest(name string, man *Manifest) (string, error) {
	if name == "" {
		name = DefaultManifestName
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(man); err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	path := filepath.Join(m.root, name)
	if err := config.WriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &config.IOError{Op: "read", Path: path, Err: err}
	}

	var man Manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, &config.ParseError{Path: path, Err: err}
	}
	return &man, nil
}
