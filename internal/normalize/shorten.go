package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
)

// emailAddress matches the address following a name in header comments.
var emailAddress = regexp.MustCompile(` ?<[^@>]+@[^>]+>`)

// ShortenOptions fills the generic placeholders of translator catalog headers.
type ShortenOptions struct {
	Package         string
	CopyrightHolder string
	Year            int
}

// Shorten returns a copy of l, still meant for translators, without source references nor
// last translator nor email addresses in header comments, and with its header placeholders filled. Fuzzy and obsolete entries are kept.
func Shorten(l *catalog.Locale, opts ShortenOptions) *catalog.Locale {
	out := l.Clone()
	out.Header = canonicalHeader(out.Header, opts.Year)
	out.Header.Del(catalog.FieldLastTranslator)

	replacer := strings.NewReplacer(
		"SOME DESCRIPTIVE TITLE.", fmt.Sprintf("Translations for '%s' (%s)", opts.Package, l.Tag),
		"THE PACKAGE'S COPYRIGHT HOLDER", opts.CopyrightHolder,
		"PACKAGE package", opts.Package+" package",
	)
	for i, c := range out.Header.Comments {
		out.Header.Comments[i] = emailAddress.ReplaceAllString(replacer.Replace(c), "")
	}

	for _, e := range out.Entries {
		e.Locations = nil
	}
	return out
}
