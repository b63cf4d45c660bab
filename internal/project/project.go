// Package project loads the project descriptor listing the source sets to compile.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/langpack/langpack/internal/acquire"
	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/pot"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/ubuntu/decorate"
	"golang.org/x/exp/slices"
)

// DefaultExtensions are the source file extensions scanned when a source set lists none.
var DefaultExtensions = []string{".c", ".cc", ".cpp", ".go", ".groovy", ".h", ".java", ".js", ".kt", ".py", ".ts"}

// Package is the project information written in template headers.
type Package struct {
	Name            string `toml:"name"`
	Version         string `toml:"version"`
	BugsAddress     string `toml:"bugs-address"`
	CopyrightHolder string `toml:"copyright-holder"`
}

// SourceSet is a group of sources compiled into one pack.
type SourceSet struct {
	Name string `toml:"name"`
	// Sources are files or directories, relative to the project root. Directories are walked
	// in lexical order.
	Sources    []string `toml:"sources"`
	Extensions []string `toml:"extensions"`
	// PoDir holds <locale>.po catalogs. Defaults to po/<name>.
	PoDir string `toml:"po-dir"`
	// Locales lists the expected locales. When empty, every catalog found is compiled.
	Locales []string `toml:"locales"`
	// TxConfig is a Transifex client configuration to acquire catalogs from instead of PoDir.
	TxConfig   string `toml:"tx-config"`
	TxResource string `toml:"tx-resource"`

	Description    string `toml:"description"`
	GitHubRepo     string `toml:"github-repo"`
	GitHubRevision string `toml:"github-revision"`
}

// Project is a decoded project descriptor.
type Project struct {
	// Root is the directory of the descriptor. Every path of the project is relative to it.
	Root       string      `toml:"-"`
	Package    Package     `toml:"package"`
	SourceSets []SourceSet `toml:"source-set"`
}

// Load decodes the descriptor at path. Unknown fields are rejected.
func Load(path string) (p *Project, err error) {
	defer decorate.OnError(&err, "could not load project %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p = &Project{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%d:%d: %v", row, col, derr)
		}
		return nil, err
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	p.Root = root

	for i := range p.SourceSets {
		if p.SourceSets[i].PoDir == "" {
			p.SourceSets[i].PoDir = filepath.Join("po", p.SourceSets[i].Name)
		}
		if len(p.SourceSets[i].Extensions) == 0 {
			p.SourceSets[i].Extensions = DefaultExtensions
		}
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p Project) validate() (err error) {
	if p.Package.Name == "" {
		err = errors.Join(err, errors.New("package name is empty"))
	}
	if len(p.SourceSets) == 0 {
		err = errors.Join(err, errors.New("no source set"))
	}

	seen := make(map[string]bool)
	for i, s := range p.SourceSets {
		if s.Name == "" {
			err = errors.Join(err, fmt.Errorf("source set #%d has no name", i+1))
		} else if strings.ContainsAny(s.Name, `/\`) {
			err = errors.Join(err, fmt.Errorf("source set name %q contains a path separator", s.Name))
		}
		if seen[s.Name] {
			err = errors.Join(err, fmt.Errorf("source set %q is declared more than once", s.Name))
		}
		seen[s.Name] = true

		if len(s.Sources) == 0 {
			err = errors.Join(err, fmt.Errorf("source set %q has no sources", s.Name))
		}
		for _, l := range s.Locales {
			if e := catalog.ValidateTag(l); e != nil {
				err = errors.Join(err, fmt.Errorf("source set %q: %v", s.Name, e))
			}
		}
		if (s.GitHubRepo == "") != (s.GitHubRevision == "") {
			err = errors.Join(err, fmt.Errorf("source set %q: github-repo and github-revision go together", s.Name))
		}
	}
	return err
}

// SourceSet returns the source set called name.
func (p Project) SourceSet(name string) (SourceSet, bool) {
	for _, s := range p.SourceSets {
		if s.Name == name {
			return s, true
		}
	}
	return SourceSet{}, false
}

// Path makes a project relative path absolute.
func (p Project) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Meta returns the template header information for a build at created.
func (p Project) Meta(year int, created time.Time) pot.Meta {
	return pot.Meta{
		Package:         p.Package.Name,
		Version:         p.Package.Version,
		BugsAddress:     p.Package.BugsAddress,
		CopyrightHolder: p.Package.CopyrightHolder,
		Year:            year,
		Created:         created,
	}
}

// Files lists the source files of s in scanning order: sources in declaration order, each
// directory walked in lexical order. A file is only listed once.
func (p Project) Files(s SourceSet) (files []string, err error) {
	defer decorate.OnError(&err, "could not list sources of %q", s.Name)

	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, src := range s.Sources {
		root := p.Path(src)
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(s.Extensions, filepath.Ext(path)) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// Source returns where the raw catalogs of s are acquired from.
func (p Project) Source(s SourceSet) acquire.Source {
	if s.TxConfig != "" {
		return acquire.TxConfig{Path: p.Path(s.TxConfig), Resource: s.TxResource}
	}
	return acquire.Dir{Path: p.Path(s.PoDir), Locales: s.Locales}
}

// Locations returns the rewriting of source references of s, nil to keep them relative to the
// project root.
func (s SourceSet) Locations() pot.LocationTransformer {
	if s.GitHubRepo == "" {
		return nil
	}
	return pot.GitHubLocations(s.GitHubRepo, s.GitHubRevision)
}
