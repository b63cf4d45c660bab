package lcat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/plural"
)

// ErrInvalid is wrapped by every error returned when decoding a malformed catalog.
var ErrInvalid = errors.New("invalid binary catalog")

// Message is a translation read from a binary catalog.
type Message struct {
	Key   catalog.Key
	Forms []string
	Fuzzy bool
}

// Text returns the first translated form.
func (m Message) Text() string {
	if len(m.Forms) == 0 {
		return ""
	}
	return m.Forms[0]
}

type index struct {
	hash   uint32
	keyOff uint32
	keyLen uint16
	valOff uint32
	valLen uint16
	flags  uint8
	forms  uint8
}

// Catalog is a decoded binary catalog. Strings are read lazily from the underlying bytes.
type Catalog struct {
	locale string
	rule   *plural.Rule

	index []index
	data  []byte
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Decode checks b and returns a catalog reading from it. b must not be modified afterwards.
func Decode(b []byte) (*Catalog, error) {
	if len(b) < headerSize {
		return nil, invalidf("truncated header")
	}
	if string(b[:4]) != Magic {
		return nil, invalidf("bad magic %q", b[:4])
	}
	if v := binary.LittleEndian.Uint16(b[4:]); v != Version {
		return nil, invalidf("unsupported version %d", v)
	}
	nplurals := int(b[6])
	count := uint64(binary.LittleEndian.Uint32(b[8:]))
	indexOff := uint64(binary.LittleEndian.Uint32(b[12:]))
	dataOff := uint64(binary.LittleEndian.Uint32(b[16:]))
	dataLen := uint64(binary.LittleEndian.Uint32(b[20:]))

	pos := uint64(headerSize)
	if pos+1 > uint64(len(b)) {
		return nil, invalidf("truncated locale tag")
	}
	tagLen := uint64(b[pos])
	pos++
	if pos+tagLen+2 > uint64(len(b)) {
		return nil, invalidf("truncated locale tag")
	}
	locale := string(b[pos : pos+tagLen])
	pos += tagLen
	progLen := uint64(binary.LittleEndian.Uint16(b[pos:]))
	pos += 2
	if pos+progLen > uint64(len(b)) {
		return nil, invalidf("truncated plural rule")
	}
	rule, err := plural.Load(nplurals, b[pos:pos+progLen])
	if err != nil {
		return nil, invalidf("%v", err)
	}
	pos += progLen

	if indexOff != pos {
		return nil, invalidf("index at %d, expected %d", indexOff, pos)
	}
	if dataOff != indexOff+count*recordSize {
		return nil, invalidf("data at %d, expected %d", dataOff, indexOff+count*recordSize)
	}
	if dataOff+dataLen != uint64(len(b)) {
		return nil, invalidf("size is %d, expected %d", len(b), dataOff+dataLen)
	}

	c := &Catalog{
		locale: locale,
		rule:   rule,
		index:  make([]index, count),
		data:   b[dataOff:],
	}
	for i := range c.index {
		r := b[indexOff+uint64(i)*recordSize:]
		x := index{
			hash:   binary.LittleEndian.Uint32(r[0:]),
			keyOff: binary.LittleEndian.Uint32(r[4:]),
			keyLen: binary.LittleEndian.Uint16(r[8:]),
			valOff: binary.LittleEndian.Uint32(r[10:]),
			valLen: binary.LittleEndian.Uint16(r[14:]),
			flags:  r[16],
			forms:  r[17],
		}
		if uint64(x.keyOff)+uint64(x.keyLen) > dataLen || uint64(x.valOff)+uint64(x.valLen) > dataLen {
			return nil, invalidf("record %d points outside of the data section", i)
		}
		if x.forms == 0 {
			return nil, invalidf("record %d has no translation", i)
		}
		c.index[i] = x

		id := c.id(x)
		if Hash(id) != x.hash {
			return nil, invalidf("record %d has a wrong hash", i)
		}
		if strings.Count(c.value(x), catalog.PluralSeparator) != int(x.forms)-1 {
			return nil, invalidf("record %d has a wrong number of forms", i)
		}
		if i > 0 {
			prev := c.index[i-1]
			if prev.hash > x.hash || prev.hash == x.hash && c.id(prev) >= id {
				return nil, invalidf("record %d is out of order", i)
			}
		}
	}

	return c, nil
}

// Locale returns the locale tag of the catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Rule returns the plural rule of the catalog.
func (c *Catalog) Rule() *plural.Rule {
	return c.rule
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.index)
}

func (c *Catalog) key(x index) string {
	return string(c.data[x.keyOff : x.keyOff+uint32(x.keyLen)])
}

func (c *Catalog) id(x index) string {
	id, _, _ := strings.Cut(c.key(x), catalog.PluralSeparator)
	return id
}

func (c *Catalog) value(x index) string {
	return string(c.data[x.valOff : x.valOff+uint32(x.valLen)])
}

func (c *Catalog) message(x index) Message {
	id, pl, _ := strings.Cut(c.key(x), catalog.PluralSeparator)
	var k catalog.Key
	if ctx, singular, found := strings.Cut(id, catalog.ContextSeparator); found {
		k.Context, k.Singular = ctx, singular
	} else {
		k.Singular = id
	}
	k.Plural = pl
	return Message{
		Key:   k,
		Forms: strings.Split(c.value(x), catalog.PluralSeparator),
		Fuzzy: x.flags&flagFuzzy != 0,
	}
}

// Lookup returns the translation of the key made of context and singular.
func (c *Catalog) Lookup(context, singular string) (Message, bool) {
	id := catalog.Key{Context: context, Singular: singular}.ID()
	h := Hash(id)

	i := sort.Search(len(c.index), func(i int) bool {
		x := c.index[i]
		return x.hash > h || x.hash == h && c.id(x) >= id
	})
	if i == len(c.index) || c.index[i].hash != h || c.id(c.index[i]) != id {
		return Message{}, false
	}
	return c.message(c.index[i]), true
}

// Plural returns the form of the translation to use for n.
func (c *Catalog) Plural(context, singular string, n uint32) (string, bool) {
	m, ok := c.Lookup(context, singular)
	if !ok {
		return "", false
	}
	if !m.Key.IsPlural() {
		return m.Text(), true
	}
	i := c.rule.Index(n)
	if i >= len(m.Forms) {
		i = len(m.Forms) - 1
	}
	return m.Forms[i], true
}

// Entries returns every message in index order.
func (c *Catalog) Entries() []Message {
	msgs := make([]Message, 0, len(c.index))
	for _, x := range c.index {
		msgs = append(msgs, c.message(x))
	}
	return msgs
}
