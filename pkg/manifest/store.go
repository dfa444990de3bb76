package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tablescan/models"
)

// ManifestFile is the JSON document inside every output directory.
const ManifestFile = "cells.json"

// ErrNotFound is returned by Load when no manifest exists for a key.
var ErrNotFound = errors.New("manifest not found")

var keyRE = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ValidKey reports whether key looks like a content hash.
func ValidKey(key string) bool {
	return keyRE.MatchString(key)
}

// Store lays out one directory per content hash under Root.
type Store struct {
	Root        string
	JPEGQuality int
	Log         logrus.FieldLogger
}

// NewStore creates root if needed.
func NewStore(root string, quality int, log logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &Store{Root: root, JPEGQuality: quality, Log: log}, nil
}

// Dir is the output directory of key.
func (s *Store) Dir(key string) string {
	return filepath.Join(s.Root, key)
}

// Write stores the bundle under its hash. Everything is written into a
// private staging directory first and renamed into place, so readers never
// see a partial cells.json. An existing directory for the same hash is
// updated in place and keeps serving the previous manifest until the new
// one lands.
func (s *Store) Write(b *Bundle) error {
	key := b.Manifest.MD5
	if !ValidKey(key) {
		return fmt.Errorf("invalid manifest key %q", key)
	}
	staging := filepath.Join(s.Root, ".staging-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	names := make([]string, 0, len(b.Images))
	for name := range b.Images {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := imaging.Save(b.Images[name], filepath.Join(staging, name), imaging.JPEGQuality(s.JPEGQuality)); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	data, err := Encode(b.Manifest)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(staging, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	final := s.Dir(key)
	if err := os.Rename(staging, final); err != nil {
		// an earlier run owns the directory; swap its files instead
		if err := s.replaceFiles(staging, final, names); err != nil {
			return fmt.Errorf("publish %s: %w", key, err)
		}
	}
	s.Log.WithFields(logrus.Fields{"hash": key, "cells": len(b.Manifest.Cells)}).Info("manifest written")
	return nil
}

// replaceFiles moves the staged images over the ones in final, then the
// manifest, then drops files the new manifest no longer references. Every
// rename replaces a single file, so final and its cells.json never vanish.
func (s *Store) replaceFiles(staging, final string, images []string) error {
	if err := os.MkdirAll(final, 0o755); err != nil {
		return err
	}
	keep := map[string]bool{ManifestFile: true}
	for _, name := range append(images, ManifestFile) {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(final, name)); err != nil {
			return err
		}
		keep[name] = true
	}
	entries, err := os.ReadDir(final)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if keep[e.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(final, e.Name())); err != nil {
			s.Log.WithError(err).WithField("file", e.Name()).Warn("remove stale output")
		}
	}
	return nil
}

// Encode renders a manifest as indented JSON without HTML escaping.
func Encode(m *models.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads the manifest stored under key.
func (s *Store) Load(key string) (*models.Manifest, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("%w: invalid key %q", ErrNotFound, key)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(key), ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", key, err)
	}
	return &m, nil
}

// Exists reports whether a manifest has been published for key.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(filepath.Join(s.Dir(key), ManifestFile))
	return err == nil
}
