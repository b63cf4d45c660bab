package pack

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/langpack/langpack/internal/lcat"
)

// Locale is a table of contents entry of a pack.
type Locale struct {
	Tag        string
	Offset     uint32
	Length     uint32
	Translated uint32
}

// Pack is a decoded pack.
type Pack struct {
	Base            string
	TemplateEntries uint32
	Digest          [digestSize]byte
	Locales         []Locale

	catalogs map[string]*lcat.Catalog
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Decode checks b, including every catalog it contains. b must not be modified afterwards.
func Decode(b []byte) (*Pack, error) {
	if len(b) < fixedHeaderSize+1 {
		return nil, invalidf("truncated header")
	}
	if string(b[:4]) != Magic {
		return nil, invalidf("bad magic %q", b[:4])
	}
	if v := binary.LittleEndian.Uint16(b[4:]); v != Version {
		return nil, invalidf("unsupported version %d", v)
	}
	count := int(binary.LittleEndian.Uint16(b[6:]))
	p := &Pack{
		TemplateEntries: binary.LittleEndian.Uint32(b[8:]),
		catalogs:        make(map[string]*lcat.Catalog, count),
	}
	copy(p.Digest[:], b[12:12+digestSize])

	pos := fixedHeaderSize
	tag, pos, err := readTag(b, pos)
	if err != nil {
		return nil, err
	}
	p.Base = tag

	for i := 0; i < count; i++ {
		var l Locale
		l.Tag, pos, err = readTag(b, pos)
		if err != nil {
			return nil, err
		}
		if pos+12 > len(b) {
			return nil, invalidf("truncated table of contents")
		}
		l.Offset = binary.LittleEndian.Uint32(b[pos:])
		l.Length = binary.LittleEndian.Uint32(b[pos+4:])
		l.Translated = binary.LittleEndian.Uint32(b[pos+8:])
		pos += 12

		if i > 0 && p.Locales[i-1].Tag >= l.Tag {
			return nil, invalidf("table of contents is not sorted at %q", l.Tag)
		}
		p.Locales = append(p.Locales, l)
	}

	end := uint64(pos)
	for _, l := range p.Locales {
		if uint64(l.Offset) != end {
			return nil, invalidf("catalog of %q at %d, expected %d", l.Tag, l.Offset, end)
		}
		end += uint64(l.Length)
		if end > uint64(len(b)) {
			return nil, invalidf("catalog of %q is truncated", l.Tag)
		}
		c, err := lcat.Decode(b[l.Offset:end])
		if err != nil {
			return nil, fmt.Errorf("%w: catalog of %q: %v", ErrInvalid, l.Tag, err)
		}
		if c.Locale() != l.Tag {
			return nil, invalidf("catalog of %q is for locale %q", l.Tag, c.Locale())
		}
		if uint32(c.Len()) != l.Translated {
			return nil, invalidf("catalog of %q has %d entries, table of contents says %d", l.Tag, c.Len(), l.Translated)
		}
		p.catalogs[l.Tag] = c
	}
	if end != uint64(len(b)) {
		return nil, invalidf("%d trailing bytes", uint64(len(b))-end)
	}

	if _, ok := p.catalogs[p.Base]; !ok {
		return nil, invalidf("base locale %q has no catalog", p.Base)
	}

	return p, nil
}

func readTag(b []byte, pos int) (string, int, error) {
	if pos >= len(b) {
		return "", pos, invalidf("truncated locale tag")
	}
	n := int(b[pos])
	pos++
	if n == 0 || pos+n > len(b) {
		return "", pos, invalidf("invalid locale tag")
	}
	return string(b[pos : pos+n]), pos + n, nil
}

// Catalog returns the catalog of a locale.
func (p *Pack) Catalog(tag string) (*lcat.Catalog, bool) {
	c, ok := p.catalogs[tag]
	return c, ok
}

// HasLocale reports whether the pack contains tag, using binary search on the table of contents.
func (p *Pack) HasLocale(tag string) bool {
	i := sort.Search(len(p.Locales), func(i int) bool { return p.Locales[i].Tag >= tag })
	return i < len(p.Locales) && p.Locales[i].Tag == tag
}

// Lookup returns the translation of a key in locale, falling back to the base locale when
// locale does not translate it or is not part of the pack. from is the locale that provided
// the message.
func (p *Pack) Lookup(locale, context, singular string) (m lcat.Message, from string, ok bool) {
	if c, found := p.catalogs[locale]; found {
		if m, ok := c.Lookup(context, singular); ok {
			return m, locale, true
		}
	}
	if m, ok := p.catalogs[p.Base].Lookup(context, singular); ok {
		return m, p.Base, true
	}
	return lcat.Message{}, "", false
}

// Plural is Lookup for a count, applying the plural rule of the locale that provided the message.
func (p *Pack) Plural(locale, context, singular string, n uint32) (string, string, bool) {
	_, from, ok := p.Lookup(locale, context, singular)
	if !ok {
		return "", "", false
	}
	s, _ := p.catalogs[from].Plural(context, singular, n)
	return s, from, true
}
