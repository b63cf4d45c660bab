package catalog

// TemplateEntry is a unique key of the template with every site it was extracted from.
type TemplateEntry struct {
	Key       Key
	Locations []Location
	Comments  []string
}

// Template is the ordered set of translatable keys found in the sources. Entries keep the
// order in which their key was first seen and no two entries share a key.
type Template struct {
	Entries []*TemplateEntry

	index map[string]int
}

// NewTemplate returns an empty template.
func NewTemplate() *Template {
	return &Template{index: make(map[string]int)}
}

// Len returns the number of unique keys.
func (t *Template) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Entries)
}

// Lookup returns the entry for k.
func (t *Template) Lookup(k Key) (*TemplateEntry, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[k.ID()]
	if !ok {
		return nil, false
	}
	return t.Entries[i], true
}

// Has reports whether k is part of the template.
func (t *Template) Has(k Key) bool {
	_, ok := t.Lookup(k)
	return ok
}

// Append adds a new entry at the end of the template. It returns false, leaving the template
// untouched, when an entry with the same key exists already.
func (t *Template) Append(e *TemplateEntry) bool {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	id := e.Key.ID()
	if _, ok := t.index[id]; ok {
		return false
	}
	t.index[id] = len(t.Entries)
	t.Entries = append(t.Entries, e)
	return true
}

// Keys returns the keys in template order.
func (t *Template) Keys() []Key {
	keys := make([]Key, 0, t.Len())
	if t == nil {
		return keys
	}
	for _, e := range t.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}
