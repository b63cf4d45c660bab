// Package normalize reduces locale catalogs to what the compiled catalogs need.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
)

// OrphanPolicy decides what happens to translations of keys missing from the template.
type OrphanPolicy string

const (
	// OrphansDrop removes orphan translations.
	OrphansDrop OrphanPolicy = "drop"
	// OrphansFail rejects the catalog.
	OrphansFail OrphanPolicy = "fail"
	// OrphansKeep retains orphan translations.
	OrphansKeep OrphanPolicy = "keep"
)

// ParseOrphanPolicy validates a policy name. The empty name is the default policy.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch p := OrphanPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return OrphansDrop, nil
	case OrphansDrop, OrphansFail, OrphansKeep:
		return p, nil
	}
	return "", fmt.Errorf("unknown orphan policy %q, expected one of drop, fail or keep", s)
}

// Options controls Normalize.
type Options struct {
	KeepFuzzy bool
	Orphans   OrphanPolicy
	// Year replaces the copyright year placeholder of the header when positive.
	Year int
	// Template is the reference for orphan detection. Orphans are not looked for when nil.
	Template *catalog.Template
}

// ValidationError rejects a locale catalog.
type ValidationError struct {
	Locale string
	Key    catalog.Key
	Line   int
	Msg    string
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("locale %s: line %d: %v: %s", e.Locale, e.Line, e.Key, e.Msg)
	}
	return fmt.Sprintf("locale %s: %v: %s", e.Locale, e.Key, e.Msg)
}

const (
	yearPlaceholder    = "(C) YEAR"
	charsetPlaceholder = "charset=CHARSET"
)

// Normalize returns a copy of l without obsolete entries, without fuzzy entries unless kept,
// without untranslated or partially translated entries and without source references. Its
// header placeholders are filled. Applying it to its own result changes nothing.
func Normalize(l *catalog.Locale, opts Options) (*catalog.Locale, error) {
	policy := opts.Orphans
	if policy == "" {
		policy = OrphansDrop
	}

	out := &catalog.Locale{
		Tag:    l.Tag,
		Header: canonicalHeader(l.Header, opts.Year),
	}

	var errs []error
	for _, e := range l.Entries {
		if e.Obsolete || e.Fuzzy && !opts.KeepFuzzy || !e.IsTranslated() {
			continue
		}

		if opts.Template != nil && !opts.Template.Has(e.Key) {
			switch policy {
			case OrphansDrop:
				continue
			case OrphansFail:
				errs = append(errs, ValidationError{Locale: l.Tag, Key: e.Key, Line: e.Line, Msg: "translation of a string absent from the template"})
				continue
			}
		}

		c := e.Clone()
		c.Locations = nil
		out.Entries = append(out.Entries, c)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func canonicalHeader(h catalog.Header, year int) catalog.Header {
	h = h.Clone()
	if year > 0 {
		for i, c := range h.Comments {
			h.Comments[i] = strings.Replace(c, yearPlaceholder, fmt.Sprintf("(C) %d", year), 1)
		}
	}
	for i, f := range h.Fields {
		h.Fields[i].Value = strings.Replace(f.Value, charsetPlaceholder, "charset=UTF-8", 1)
	}
	return h
}
