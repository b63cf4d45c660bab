package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
	"\a", `\a`,
	"\b", `\b`,
	"\f", `\f`,
	"\v", `\v`,
)

// Quote returns s as a gettext string literal, quotes included.
func Quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

// catalogWriter writes blocks separated by a blank line and remembers the first error.
type catalogWriter struct {
	w      *bufio.Writer
	blocks int
	err    error
}

func newCatalogWriter(w io.Writer) *catalogWriter {
	return &catalogWriter{w: bufio.NewWriter(w)}
}

func (cw *catalogWriter) line(prefix, format string, args ...any) {
	if cw.err != nil {
		return
	}
	_, cw.err = fmt.Fprintf(cw.w, prefix+format+"\n", args...)
}

func (cw *catalogWriter) startBlock() {
	if cw.blocks > 0 {
		cw.line("", "")
	}
	cw.blocks++
}

// str writes a keyword and its string, splitting multi-line strings after each newline
// the way gettext tools do.
func (cw *catalogWriter) str(prefix, keyword, s string) {
	i := strings.Index(s, "\n")
	if i < 0 || i == len(s)-1 {
		cw.line(prefix, "%s %s", keyword, Quote(s))
		return
	}
	cw.line(prefix, "%s %s", keyword, Quote(""))
	for s != "" {
		piece := s
		if i := strings.Index(s, "\n"); i >= 0 {
			piece = s[:i+1]
		}
		cw.line(prefix, "%s", Quote(piece))
		s = s[len(piece):]
	}
}

func (cw *catalogWriter) header(h Header) {
	cw.startBlock()
	for _, c := range h.Comments {
		if c == "" {
			cw.line("", "#")
			continue
		}
		cw.line("", "# %s", c)
	}
	if h.Fuzzy {
		cw.line("", "#, fuzzy")
	}
	cw.line("", `msgid ""`)
	cw.line("", `msgstr ""`)
	for _, f := range h.Fields {
		cw.line("", "%s", Quote(f.Name+": "+f.Value+"\n"))
	}
}

func (cw *catalogWriter) key(prefix string, k Key) {
	if k.Context != "" {
		cw.str(prefix, "msgctxt", k.Context)
	}
	cw.str(prefix, "msgid", k.Singular)
	if k.IsPlural() {
		cw.str(prefix, "msgid_plural", k.Plural)
	}
}

func (cw *catalogWriter) flush() error {
	if cw.err != nil {
		return cw.err
	}
	return cw.w.Flush()
}

// WriteTemplate writes t in the POT format, preceded by header.
func WriteTemplate(w io.Writer, header Header, t *Template) error {
	cw := newCatalogWriter(w)
	cw.header(header)

	for _, e := range t.Entries {
		cw.startBlock()
		for _, c := range e.Comments {
			cw.line("", "#. %s", c)
		}
		for _, l := range e.Locations {
			cw.line("", "#: %s", l)
		}
		cw.key("", e.Key)
		if e.Key.IsPlural() {
			cw.str("", "msgstr[0]", "")
			cw.str("", "msgstr[1]", "")
			continue
		}
		cw.str("", "msgstr", "")
	}

	return cw.flush()
}

// WriteLocale writes l in the PO format.
func WriteLocale(w io.Writer, l *Locale) error {
	cw := newCatalogWriter(w)
	if !l.Header.IsZero() {
		cw.header(l.Header)
	}

	for _, e := range l.Entries {
		cw.startBlock()
		for _, c := range e.TranslatorComments {
			if c == "" {
				cw.line("", "#")
				continue
			}
			cw.line("", "# %s", c)
		}
		for _, c := range e.Comments {
			cw.line("", "#. %s", c)
		}
		for _, loc := range e.Locations {
			cw.line("", "#: %s", loc)
		}
		if e.Fuzzy {
			cw.line("", "#, fuzzy")
		}

		prefix := ""
		if e.Obsolete {
			prefix = "#~ "
		}
		cw.key(prefix, e.Key)
		if e.Key.IsPlural() {
			for i, s := range e.Translations {
				cw.str(prefix, fmt.Sprintf("msgstr[%d]", i), s)
			}
			continue
		}
		msgstr := ""
		if len(e.Translations) > 0 {
			msgstr = e.Translations[0]
		}
		cw.str(prefix, "msgstr", msgstr)
	}

	return cw.flush()
}
