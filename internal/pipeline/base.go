package pipeline

import (
	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/plural"
)

// Synthesize returns the catalog of the source language of t: every key translates to itself.
func Synthesize(t *catalog.Template, tag string) *catalog.Locale {
	l := &catalog.Locale{Tag: tag}
	l.Header.Set(catalog.FieldLanguage, tag)
	l.Header.Set(catalog.FieldContentType, "text/plain; charset=UTF-8")

	for _, k := range t.Keys() {
		l.Entries = append(l.Entries, sourceEntry(k))
		if k.IsPlural() {
			if _, ok := l.Header.PluralForms(); !ok {
				l.Header.Set(catalog.FieldPluralForms, plural.DefaultRule)
			}
		}
	}
	return l
}

// complete appends to the base catalog l the source text of the template keys it does not
// translate, so that every fallback lookup succeeds.
func complete(l *catalog.Locale, t *catalog.Template) *catalog.Locale {
	missing := false
	for _, k := range t.Keys() {
		if _, ok := l.Lookup(k); ok {
			continue
		}
		if !missing {
			l = l.Clone()
			missing = true
		}
		l.Entries = append(l.Entries, sourceEntry(k))
	}
	return l
}

func sourceEntry(k catalog.Key) *catalog.Entry {
	translations := []string{k.Singular}
	if k.IsPlural() {
		translations = append(translations, k.Plural)
	}
	return &catalog.Entry{Key: k, Translations: translations}
}
