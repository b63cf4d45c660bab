// Package i18n is responsible for internationalization/translation handling of the tool's own messages.
package i18n

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/snapcore/go-gettext"
)

var (
	// G is the shorthand for Gettext.
	G = func(msgid string) string { return msgid }
	// NG is the shorthand for NGettext.
	NG = func(msgid string, msgidPlural string, n uint32) string {
		if n == 1 {
			return msgid
		}
		return msgidPlural
	}
)

// DefaultLocaleDir is where compiled catalogs of the tool are installed.
const DefaultLocaleDir = "/usr/share/locale"

type i18n struct {
	domain    string
	localeDir string
	loc       string

	gettext.Catalog
	translations gettext.Translations
}

// Option changes how the domain is bound.
type Option func(l *i18n)

// WithLocaleDir overrides the directory holding <locale>/LC_MESSAGES/<domain>.mo files.
func WithLocaleDir(dir string) Option {
	return func(l *i18n) {
		l.localeDir = dir
	}
}

// WithLoc overrides the locale read from the environment.
func WithLoc(loc string) Option {
	return func(l *i18n) {
		l.loc = loc
	}
}

// InitI18nDomain calls bind + set locale to system values.
func InitI18nDomain(domain string, options ...Option) {
	l := i18n{
		domain:    domain,
		localeDir: DefaultLocaleDir,
	}
	for _, o := range options {
		o(&l)
	}

	l.bindTextDomain(l.domain, l.localeDir)
	l.setLocale(l.loc)

	G = l.Gettext
	NG = l.NGettext
}

func (l *i18n) bindTextDomain(domain, dir string) {
	l.translations = gettext.NewTranslations(dir, domain, resolver)
}

// setLocale initializes the locale name and simplifies it.
// If empty, it defaults to the system ones set in LC_ALL, LC_MESSAGES and LANG.
func (l *i18n) setLocale(loc string) {
	if loc == "" {
		for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
			if loc = os.Getenv(env); loc != "" {
				break
			}
		}
	}
	// de_DE.UTF-8@euro -> de_DE
	loc, _, _ = strings.Cut(loc, ".")
	loc, _, _ = strings.Cut(loc, "@")

	l.loc = loc
	l.Catalog = l.translations.Locale(loc)
}

func resolver(root, locale, domain string) string {
	return filepath.Join(root, locale, "LC_MESSAGES", domain+".mo")
}
