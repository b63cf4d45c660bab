// Package po parses and validates catalogs in the gettext PO format.
package po

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/plural"
)

// ParseFile parses the catalog at path.
func ParseFile(path string) (*catalog.Locale, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open catalog: %v", err)
	}
	defer f.Close()

	return Parse(path, f)
}

// Parse reads a catalog named name. It fails on the first malformed construct and never
// returns a partial catalog.
func Parse(name string, r io.Reader) (*catalog.Locale, error) {
	p := parser{
		name: name,
		seen: make(map[seenKey]int),
		l:    &catalog.Locale{},
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for s.Scan() {
		p.lineNo++
		if err := p.line(s.Text()); err != nil {
			return nil, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("could not read catalog %s: %v", name, err)
	}
	if err := p.flush(); err != nil {
		return nil, err
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	p.l.Tag = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if lang, ok := p.l.Header.Get(catalog.FieldLanguage); ok && lang != "" {
		p.l.Tag = lang
	}

	return p.l, nil
}

type seenKey struct {
	id       string
	obsolete bool
}

// entry is the entry being read.
type entry struct {
	line   int
	idLine int

	ctx, id, plural *string
	msgstr          *string
	forms           map[int]*string

	fuzzy, obsolete    bool
	locations          []catalog.Location
	comments           []string
	translatorComments []string

	// last is the string continuation lines are appended to.
	last *string
}

func (e *entry) empty() bool {
	return e.line == 0 && e.ctx == nil && e.id == nil && e.msgstr == nil && e.forms == nil
}

func (e *entry) hasKeywords() bool {
	return e.ctx != nil || e.id != nil || e.plural != nil || e.msgstr != nil || e.forms != nil
}

type parser struct {
	name   string
	lineNo int

	cur        entry
	sawComment bool
	seen       map[seenKey]int
	headerSeen bool

	l *catalog.Locale
}

func (p *parser) errorf(line int, token, format string, args ...any) error {
	return ParseError{File: p.name, Line: line, Token: token, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) line(raw string) error {
	text := strings.TrimRight(raw, " \t\r")
	if strings.TrimSpace(text) == "" {
		return p.flush()
	}

	obsolete := false
	if strings.HasPrefix(text, "#~") {
		obsolete = true
		text = strings.TrimPrefix(text, "#~")
		if strings.HasPrefix(text, "|") {
			return nil
		}
		text = strings.TrimLeft(text, " \t")
	} else if strings.HasPrefix(text, "#") {
		return p.comment(text)
	}

	text = strings.TrimLeft(text, " \t")
	if strings.HasPrefix(text, `"`) {
		if p.cur.last == nil {
			return p.errorf(p.lineNo, text, "string without keyword")
		}
		s, err := p.str(text)
		if err != nil {
			return err
		}
		*p.cur.last += s
		return nil
	}

	keyword, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimLeft(rest, " \t")
	return p.keyword(keyword, rest, obsolete)
}

func (p *parser) comment(text string) error {
	// Comments after keywords start a new entry.
	if p.cur.hasKeywords() {
		if err := p.flush(); err != nil {
			return err
		}
	}
	if p.cur.line == 0 {
		p.cur.line = p.lineNo
	}

	switch {
	case strings.HasPrefix(text, "#,"):
		for _, flag := range strings.Split(text[2:], ",") {
			if strings.TrimSpace(flag) == "fuzzy" {
				p.cur.fuzzy = true
			}
		}
	case strings.HasPrefix(text, "#:"):
		for _, ref := range strings.Fields(text[2:]) {
			p.cur.locations = append(p.cur.locations, parseLocation(ref))
		}
	case strings.HasPrefix(text, "#."):
		p.cur.comments = append(p.cur.comments, strings.TrimSpace(text[2:]))
	case strings.HasPrefix(text, "#|"):
		// Previous source strings of fuzzy entries are not kept.
	default:
		c := strings.TrimPrefix(text, "#")
		c = strings.TrimPrefix(c, " ")
		p.cur.translatorComments = append(p.cur.translatorComments, c)
	}
	return nil
}

func parseLocation(ref string) catalog.Location {
	i := strings.LastIndex(ref, ":")
	if i < 0 {
		return catalog.Location{File: ref}
	}
	n, err := strconv.Atoi(ref[i+1:])
	if err != nil {
		return catalog.Location{File: ref}
	}
	return catalog.Location{File: ref[:i], Line: n}
}

func (p *parser) keyword(keyword, rest string, obsolete bool) error {
	// A new key starts a new entry even without a blank line separator.
	if (keyword == "msgctxt" || keyword == "msgid") && (p.cur.id != nil || p.cur.msgstr != nil || p.cur.forms != nil) {
		if err := p.flush(); err != nil {
			return err
		}
	}

	if p.cur.line == 0 {
		p.cur.line = p.lineNo
	}
	if p.cur.hasKeywords() && p.cur.obsolete != obsolete {
		return p.errorf(p.lineNo, keyword, "mixed obsolete and active lines in one entry")
	}
	p.cur.obsolete = obsolete

	s, err := p.str(rest)
	if err != nil {
		return err
	}

	target, err := p.target(keyword)
	if err != nil {
		return err
	}
	*target = s
	p.cur.last = target
	return nil
}

// target returns where the value of keyword is stored in the current entry.
func (p *parser) target(keyword string) (*string, error) {
	e := &p.cur
	duplicate := func(set bool) error {
		if set {
			return p.errorf(p.lineNo, keyword, "duplicate keyword in entry")
		}
		return nil
	}

	switch keyword {
	case "msgctxt":
		if e.id != nil {
			return nil, p.errorf(p.lineNo, keyword, "msgctxt after msgid")
		}
		if err := duplicate(e.ctx != nil); err != nil {
			return nil, err
		}
		e.ctx = new(string)
		return e.ctx, nil
	case "msgid":
		if err := duplicate(e.id != nil); err != nil {
			return nil, err
		}
		e.id = new(string)
		e.idLine = p.lineNo
		return e.id, nil
	case "msgid_plural":
		if e.id == nil {
			return nil, p.errorf(p.lineNo, keyword, "msgid_plural without msgid")
		}
		if err := duplicate(e.plural != nil); err != nil {
			return nil, err
		}
		e.plural = new(string)
		return e.plural, nil
	case "msgstr":
		if e.id == nil {
			return nil, p.errorf(p.lineNo, keyword, "msgstr without msgid")
		}
		if e.plural != nil {
			return nil, p.errorf(p.lineNo, keyword, "plural entry needs indexed msgstr")
		}
		if err := duplicate(e.msgstr != nil); err != nil {
			return nil, err
		}
		e.msgstr = new(string)
		return e.msgstr, nil
	}

	if !strings.HasPrefix(keyword, "msgstr[") || !strings.HasSuffix(keyword, "]") {
		return nil, p.errorf(p.lineNo, keyword, "unknown keyword")
	}
	n, err := strconv.Atoi(keyword[len("msgstr[") : len(keyword)-1])
	if err != nil || n < 0 || n >= plural.MaxForms {
		return nil, p.errorf(p.lineNo, keyword, "invalid plural index")
	}
	if e.plural == nil {
		return nil, p.errorf(p.lineNo, keyword, "indexed msgstr without msgid_plural")
	}
	if e.forms == nil {
		e.forms = make(map[int]*string)
	}
	if err := duplicate(e.forms[n] != nil); err != nil {
		return nil, err
	}
	s := new(string)
	e.forms[n] = s
	return s, nil
}

// str decodes a quoted string that must span the rest of the line.
func (p *parser) str(text string) (string, error) {
	if !strings.HasPrefix(text, `"`) {
		return "", p.errorf(p.lineNo, text, "expected a string")
	}
	var b strings.Builder
	for i := 1; i < len(text); i++ {
		c := text[i]
		switch c {
		case '"':
			if trailing := strings.TrimSpace(text[i+1:]); trailing != "" {
				return "", p.errorf(p.lineNo, trailing, "unexpected text after string")
			}
			return b.String(), nil
		case '\\':
			if i+1 >= len(text) {
				return "", p.errorf(p.lineNo, text, "unterminated string")
			}
			n, err := unescape(&b, text[i+1:])
			if err != nil {
				return "", p.errorf(p.lineNo, text[i:], "%v", err)
			}
			i += n
		default:
			b.WriteByte(c)
		}
	}
	return "", p.errorf(p.lineNo, text, "unterminated string")
}

// unescape decodes the escape sequence whose backslash precedes s and returns the number of
// bytes consumed from s.
func unescape(b *strings.Builder, s string) (int, error) {
	switch s[0] {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '\\', '"', '\'', '?':
		b.WriteByte(s[0])
	case 'x':
		n := 1
		for n < len(s) && n < 3 && isHex(s[n]) {
			n++
		}
		if n == 1 {
			return 0, fmt.Errorf("invalid hexadecimal escape")
		}
		v, _ := strconv.ParseUint(s[1:n], 16, 8)
		b.WriteByte(byte(v))
		return n, nil
	default:
		if s[0] < '0' || s[0] > '7' {
			return 0, fmt.Errorf("invalid escape sequence")
		}
		n := 1
		for n < len(s) && n < 3 && s[n] >= '0' && s[n] <= '7' {
			n++
		}
		v, err := strconv.ParseUint(s[:n], 8, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid octal escape")
		}
		b.WriteByte(byte(v))
		return n, nil
	}
	return 1, nil
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// flush validates the current entry and adds it to the catalog.
func (p *parser) flush() error {
	e := p.cur
	p.cur = entry{}
	if e.empty() {
		return nil
	}
	if !e.hasKeywords() {
		// Trailing comments are kept with the next entry.
		if len(e.translatorComments) > 0 || len(e.comments) > 0 || len(e.locations) > 0 || e.fuzzy {
			p.cur = e
			p.cur.last = nil
		}
		return nil
	}

	if e.id == nil {
		return p.errorf(e.line, "", "entry without msgid")
	}
	if e.plural != nil && e.forms == nil {
		return p.errorf(e.line, *e.id, "msgid_plural without msgstr[0]")
	}
	if e.plural == nil && e.msgstr == nil {
		return p.errorf(e.line, *e.id, "msgid without msgstr")
	}

	key := catalog.Key{Singular: *e.id}
	if e.ctx != nil {
		key.Context = *e.ctx
	}

	// The header is the first active entry with an empty msgid and no context.
	if key.Singular == "" && e.ctx == nil && !e.obsolete {
		if p.headerSeen {
			return p.errorf(e.line, `msgid ""`, "duplicate header entry")
		}
		if e.plural != nil {
			return p.errorf(e.line, `msgid ""`, "header entry cannot be plural")
		}
		p.headerSeen = true
		p.l.Header = catalog.Header{
			Comments: e.translatorComments,
			Fields:   catalog.ParseHeader(*e.msgstr),
			Fuzzy:    e.fuzzy,
			Line:     e.idLine,
		}
		return nil
	}
	if key.Singular == "" {
		return p.errorf(e.line, `msgid ""`, "empty msgid")
	}

	seen := seenKey{id: key.ID(), obsolete: e.obsolete}
	if first, ok := p.seen[seen]; ok {
		return p.errorf(e.line, key.Singular, "duplicate definition of %v, first defined at line %d", key, first)
	}
	p.seen[seen] = e.line

	out := &catalog.Entry{
		Key:                key,
		Fuzzy:              e.fuzzy,
		Obsolete:           e.obsolete,
		Locations:          e.locations,
		Comments:           e.comments,
		TranslatorComments: e.translatorComments,
		Line:               e.line,
	}
	if e.plural == nil {
		out.Translations = []string{*e.msgstr}
	} else {
		out.Key.Plural = *e.plural
		out.Translations = make([]string, len(e.forms))
		for i := range out.Translations {
			s, ok := e.forms[i]
			if !ok {
				return p.errorf(e.line, key.Singular, "missing msgstr[%d]", i)
			}
			out.Translations[i] = *s
		}
	}

	p.l.Entries = append(p.l.Entries, out)
	return nil
}

// validate checks the header against the entries.
func (p *parser) validate() error {
	h := p.l.Header
	headerLine := h.Line
	if headerLine == 0 {
		headerLine = 1
	}

	if cs := h.Charset(); cs != "" && cs != "CHARSET" && !isUTF8(cs) {
		return p.errorf(headerLine, cs, "unsupported charset, only UTF-8 is accepted")
	}

	if !p.l.HasPlurals() {
		return nil
	}

	rule, ok := h.PluralForms()
	if !ok || strings.TrimSpace(rule) == "" {
		return p.errorf(headerLine, catalog.FieldPluralForms, "plural entries require a Plural-Forms header")
	}
	r, err := plural.Parse(rule)
	if err != nil {
		return p.errorf(headerLine, rule, "%v", err)
	}

	for _, e := range p.l.Entries {
		if e.Obsolete || !e.Key.IsPlural() {
			continue
		}
		if len(e.Translations) > r.NPlurals {
			return p.errorf(e.Line, e.Key.Singular, "%d plural forms, the header declares %d", len(e.Translations), r.NPlurals)
		}
		for len(e.Translations) < r.NPlurals {
			e.Translations = append(e.Translations, "")
		}
	}

	return nil
}

func isUTF8(charset string) bool {
	return strings.EqualFold(charset, "UTF-8") || strings.EqualFold(charset, "UTF8")
}
