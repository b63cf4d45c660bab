package catalog

import (
	"strings"
)

// Entry is one translation of a locale catalog.
type Entry struct {
	Key Key
	// Translations holds msgstr for singular keys and msgstr[0..n] for plural keys.
	Translations []string

	Fuzzy    bool
	Obsolete bool

	Locations          []Location
	Comments           []string
	TranslatorComments []string

	// Line is where the entry starts in its textual form, 0 when not parsed from text.
	Line int
}

// IsTranslated reports whether every form has a non empty translation.
func (e *Entry) IsTranslated() bool {
	if len(e.Translations) == 0 {
		return false
	}
	for _, s := range e.Translations {
		if s == "" {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Translations = append([]string(nil), e.Translations...)
	c.Locations = append([]Location(nil), e.Locations...)
	c.Comments = append([]string(nil), e.Comments...)
	c.TranslatorComments = append([]string(nil), e.TranslatorComments...)
	return &c
}

// Locale is the set of translations of one language. The same type carries both a raw catalog,
// as acquired from translators, and its normalized form.
type Locale struct {
	Tag     string
	Header  Header
	Entries []*Entry
}

// Lookup returns the first non obsolete entry matching k.
func (l *Locale) Lookup(k Key) (*Entry, bool) {
	for _, e := range l.Entries {
		if !e.Obsolete && e.Key.Equal(k) {
			return e, true
		}
	}
	return nil, false
}

// HasPlurals reports whether a non obsolete entry has a plural key.
func (l *Locale) HasPlurals() bool {
	for _, e := range l.Entries {
		if !e.Obsolete && e.Key.IsPlural() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the catalog.
func (l *Locale) Clone() *Locale {
	c := &Locale{
		Tag:     l.Tag,
		Header:  l.Header.Clone(),
		Entries: make([]*Entry, 0, len(l.Entries)),
	}
	for _, e := range l.Entries {
		c.Entries = append(c.Entries, e.Clone())
	}
	return c
}

// Well-known header field names.
const (
	FieldProjectIDVersion = "Project-Id-Version"
	FieldPOTCreationDate  = "POT-Creation-Date"
	FieldRevisionDate     = "PO-Revision-Date"
	FieldLastTranslator   = "Last-Translator"
	FieldLanguageTeam     = "Language-Team"
	FieldLanguage         = "Language"
	FieldContentType      = "Content-Type"
	FieldPluralForms      = "Plural-Forms"
)

// HeaderField is one "Name: value" line of a catalog header.
type HeaderField struct {
	Name  string
	Value string
}

// Header is the metadata entry (empty msgid) of a catalog.
type Header struct {
	// Comments are the leading "# " lines of the file, without the "# " prefix.
	Comments []string
	Fields   []HeaderField
	Fuzzy    bool
	// Line is the line of the header's msgid, 0 when the catalog has no header.
	Line int
}

// ParseHeader reads the msgstr of a header entry.
func ParseHeader(msgstr string) []HeaderField {
	var fields []HeaderField
	for _, line := range strings.Split(msgstr, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields = append(fields, HeaderField{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return fields
}

// String renders the fields as the msgstr of a header entry.
func (h Header) String() string {
	var b strings.Builder
	for _, f := range h.Fields {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}

// Get returns the value of a field.
func (h Header) Get(name string) (string, bool) {
	for _, f := range h.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value of a field, appending it when missing.
func (h *Header) Set(name, value string) {
	for i, f := range h.Fields {
		if strings.EqualFold(f.Name, name) {
			h.Fields[i].Value = value
			return
		}
	}
	h.Fields = append(h.Fields, HeaderField{Name: name, Value: value})
}

// Del removes a field.
func (h *Header) Del(name string) {
	fields := h.Fields[:0]
	for _, f := range h.Fields {
		if !strings.EqualFold(f.Name, name) {
			fields = append(fields, f)
		}
	}
	h.Fields = fields
}

// Charset returns the charset declared in the Content-Type field.
func (h Header) Charset() string {
	ct, ok := h.Get(FieldContentType)
	if !ok {
		return ""
	}
	for _, part := range strings.Split(ct, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if found && strings.EqualFold(strings.TrimSpace(name), "charset") {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// PluralForms returns the plural forms rule, if any.
func (h Header) PluralForms() (string, bool) {
	return h.Get(FieldPluralForms)
}

// RevisionDate returns the PO-Revision-Date field.
func (h Header) RevisionDate() string {
	v, _ := h.Get(FieldRevisionDate)
	return v
}

// Team returns the Language-Team field.
func (h Header) Team() string {
	v, _ := h.Get(FieldLanguageTeam)
	return v
}

// IsZero reports whether the catalog had no header at all.
func (h Header) IsZero() bool {
	return len(h.Comments) == 0 && len(h.Fields) == 0 && !h.Fuzzy && h.Line == 0
}

// Clone returns a deep copy of the header.
func (h Header) Clone() Header {
	c := h
	c.Comments = append([]string(nil), h.Comments...)
	c.Fields = append([]HeaderField(nil), h.Fields...)
	return c
}
