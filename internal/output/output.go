// Package output persists the artifacts of a compiled source set and the manifest describing
// which inputs produced them.
package output

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/langpack/langpack/internal/acquire"
	"github.com/langpack/langpack/internal/consts"
	"github.com/langpack/langpack/internal/log"
	"github.com/langpack/langpack/internal/pipeline"
	"github.com/ubuntu/decorate"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Set describes where and from what a source set was compiled.
type Set struct {
	// Dir receives every artifact of the source set.
	Dir  string
	Name string
	Base string
	// Root is the directory input paths are relative to in the manifest.
	Root     string
	Sources  []string
	Catalogs []acquire.Result
	// Settings fingerprints the compilation options.
	Settings string
}

// TemplatePath is where the template of the source set is written.
func (s Set) TemplatePath() string {
	return filepath.Join(s.Dir, s.Name+consts.TemplateExtension)
}

// PackPath is where the pack of the source set is written.
func (s Set) PackPath() string {
	return filepath.Join(s.Dir, s.Name+consts.PackExtension)
}

// ManifestPath is where the manifest of the source set is written.
func (s Set) ManifestPath() string {
	return filepath.Join(s.Dir, consts.ManifestFileName)
}

// CatalogPath is where the binary catalog of locale is written.
func (s Set) CatalogPath(locale string) string {
	return filepath.Join(s.Dir, locale+consts.BinaryCatalogExtension)
}

// MoPath is where the MO file of locale is written, in the gettext directory layout.
func (s Set) MoPath(locale string) string {
	return filepath.Join(s.Dir, "mo", locale, "LC_MESSAGES", s.Name+consts.MoExtension)
}

// Inputs hashes the sources and the catalogs of the source set.
func (s Set) Inputs() ([]File, error) {
	files := make([]File, 0, len(s.Sources)+len(s.Catalogs))
	for _, p := range s.Sources {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("could not hash input: %v", err)
		}
		files = append(files, newFile(s.relative(p), data))
	}
	for _, c := range s.Catalogs {
		if c.Err != nil {
			continue
		}
		files = append(files, newFile(s.relative(c.Path), c.Data))
	}
	slices.SortFunc(files, compareFiles)
	return files, nil
}

func (s Set) relative(p string) string {
	if s.Root == "" {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(s.Root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// Write writes every artifact of res that changed and removes the artifacts of the previous
// build that res no longer produces. Unchanged files are left untouched.
func Write(ctx context.Context, s Set, res *pipeline.Result) (m *Manifest, err error) {
	defer decorate.OnError(&err, "could not write outputs of source set %q", s.Name)

	inputs, err := s.Inputs()
	if err != nil {
		return nil, err
	}

	artifacts := map[string][]byte{
		s.TemplatePath(): res.POT,
		s.PackPath():     res.Pack,
	}
	for locale, b := range res.Catalogs {
		artifacts[s.CatalogPath(locale)] = b
	}
	for locale, b := range res.MO {
		artifacts[s.MoPath(locale)] = b
	}

	paths := maps.Keys(artifacts)
	slices.Sort(paths)

	m = &Manifest{
		SourceSet: s.Name,
		Base:      s.Base,
		Settings:  s.Settings,
		Inputs:    inputs,
	}
	for _, p := range paths {
		changed, err := WriteFile(p, artifacts[p])
		if err != nil {
			return nil, err
		}
		if changed {
			log.Infof(ctx, "Wrote %s", p)
		} else {
			log.Debugf(ctx, "%s is up to date", p)
		}
		m.Outputs = append(m.Outputs, newFile(s.relativeToDir(p), artifacts[p]))
	}
	for _, sk := range res.Skipped {
		m.Skipped = append(m.Skipped, Skip{Locale: sk.Locale, Reason: sk.Err.Error()})
	}

	if previous, err := LoadManifest(s.ManifestPath()); err == nil {
		s.prune(ctx, previous, m)
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Warningf(ctx, "Ignoring previous manifest: %v", err)
	}

	data, err := m.marshal()
	if err != nil {
		return nil, err
	}
	if _, err := WriteFile(s.ManifestPath(), data); err != nil {
		return nil, err
	}
	return m, nil
}

// UpToDate reports whether the manifest on disk was produced from the current inputs and
// settings and all its outputs are still intact.
func UpToDate(s Set) (bool, error) {
	m, err := LoadManifest(s.ManifestPath())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if m.Settings != s.Settings {
		return false, nil
	}
	inputs, err := s.Inputs()
	if err != nil {
		return false, err
	}
	if !slices.Equal(inputs, m.Inputs) {
		return false, nil
	}
	for _, o := range m.Outputs {
		data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(o.Path)))
		if err != nil {
			return false, nil
		}
		if newFile(o.Path, data) != o {
			return false, nil
		}
	}
	return true, nil
}

func (s Set) relativeToDir(p string) string {
	rel, err := filepath.Rel(s.Dir, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// prune removes the outputs of previous that current does not list.
func (s Set) prune(ctx context.Context, previous, current *Manifest) {
	kept := make(map[string]bool, len(current.Outputs))
	for _, o := range current.Outputs {
		kept[o.Path] = true
	}
	for _, o := range previous.Outputs {
		if kept[o.Path] || strings.HasPrefix(o.Path, "../") || filepath.IsAbs(o.Path) {
			continue
		}
		p := filepath.Join(s.Dir, filepath.FromSlash(o.Path))
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warningf(ctx, "Could not remove stale output: %v", err)
			continue
		}
		log.Infof(ctx, "Removed stale output %s", p)
	}
}

// WriteFile writes data to path through a temporary file, unless path already holds data.
func WriteFile(path string, data []byte) (changed bool, err error) {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return false, fmt.Errorf("could not create directory: %v", err)
	}

	tmp := path + ".tmp"
	//nolint:gosec // Artifacts are packaged and read by other users.
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return false, fmt.Errorf("could not write: %v", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		if r := os.Remove(tmp); r != nil {
			log.Warningf(context.Background(), "could not remove temporary file: %v", r)
		}
		return false, err
	}

	return true, nil
}

func newFile(path string, data []byte) File {
	sum := sha256.Sum256(data)
	return File{Path: path, SHA256: hex.EncodeToString(sum[:])}
}
