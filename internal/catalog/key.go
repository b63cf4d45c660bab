// Package catalog holds the data model shared by every stage of the localization pipeline:
// string keys, extraction sites, the template catalog and locale catalogs, plus their
// gettext-compatible textual form.
package catalog

import (
	"fmt"
	"strings"
)

// ContextSeparator joins a context and a singular form in a lookup key. It cannot appear in
// either of them in valid catalogs (same convention as GNU gettext).
const ContextSeparator = "\x04"

// PluralSeparator joins the forms of a plural key or translation in binary formats.
const PluralSeparator = "\x00"

// Key identifies a translatable unit. Equality and ordering only consider Context and Singular:
// two keys differing only by their plural form denote the same unit.
type Key struct {
	Context  string
	Singular string
	Plural   string
}

// ID returns the lookup identity of the key.
func (k Key) ID() string {
	if k.Context == "" {
		return k.Singular
	}
	return k.Context + ContextSeparator + k.Singular
}

// IsPlural reports whether the key has a plural form.
func (k Key) IsPlural() bool {
	return k.Plural != ""
}

// Equal compares two keys by their identity.
func (k Key) Equal(o Key) bool {
	return k.Context == o.Context && k.Singular == o.Singular
}

// Compare orders keys by context, then singular form.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(k.Context, o.Context); c != 0 {
		return c
	}
	return strings.Compare(k.Singular, o.Singular)
}

func (k Key) String() string {
	if k.Context == "" {
		return fmt.Sprintf("%q", k.Singular)
	}
	return fmt.Sprintf("%q (context %q)", k.Singular, k.Context)
}

// Location is a position in a source file.
type Location struct {
	File string
	Line int
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0
}

func (l Location) String() string {
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Occurrence is one extraction site of a key.
type Occurrence struct {
	Key      Key
	Location Location
	Comment  string
}
