// Package pot folds extracted occurrences into the template catalog and renders it in the
// gettext POT format.
package pot

import (
	"fmt"
	"path"

	"github.com/langpack/langpack/internal/catalog"
)

// Builder accumulates occurrences into a template. The first occurrence of a key decides its
// position, later ones only add their location and comment.
type Builder struct {
	t *catalog.Template
}

// NewBuilder returns a builder over an empty template.
func NewBuilder() *Builder {
	return &Builder{t: catalog.NewTemplate()}
}

// Add records one occurrence.
func (b *Builder) Add(occ catalog.Occurrence) {
	e, ok := b.t.Lookup(occ.Key)
	if !ok {
		e = &catalog.TemplateEntry{Key: occ.Key}
		b.t.Append(e)
	}

	if e.Key.Plural == "" && occ.Key.Plural != "" {
		e.Key.Plural = occ.Key.Plural
	}
	if !occ.Location.IsZero() && !containsLocation(e.Locations, occ.Location) {
		e.Locations = append(e.Locations, occ.Location)
	}
	if occ.Comment != "" && !containsString(e.Comments, occ.Comment) {
		e.Comments = append(e.Comments, occ.Comment)
	}
}

// AddDescription appends the description of a source set as an extra translatable string,
// after every extracted one.
func (b *Builder) AddDescription(name, description string) {
	if description == "" {
		return
	}
	b.Add(catalog.Occurrence{
		Key:     catalog.Key{Singular: description},
		Comment: fmt.Sprintf("Plugin description for %s", name),
	})
}

// Template returns the template built so far.
func (b *Builder) Template() *catalog.Template {
	return b.t
}

// Build folds occs into a new template.
func Build(occs []catalog.Occurrence) *catalog.Template {
	b := NewBuilder()
	for _, o := range occs {
		b.Add(o)
	}
	return b.Template()
}

// LocationTransformer rewrites the source references of a template.
type LocationTransformer func(catalog.Location) catalog.Location

// GitHubLocations turns relative references into links to a GitHub repository at a revision.
func GitHubLocations(repo, revision string) LocationTransformer {
	return func(l catalog.Location) catalog.Location {
		file := "https://" + path.Join("github.com", repo, "blob", revision, l.File)
		if l.Line > 0 {
			file = fmt.Sprintf("%s#L%d", file, l.Line)
		}
		return catalog.Location{File: file}
	}
}

// TransformLocations applies fn to every reference of t.
func TransformLocations(t *catalog.Template, fn LocationTransformer) {
	for _, e := range t.Entries {
		for i, l := range e.Locations {
			e.Locations[i] = fn(l)
		}
	}
}

func containsLocation(locs []catalog.Location, l catalog.Location) bool {
	for _, x := range locs {
		if x == l {
			return true
		}
	}
	return false
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
