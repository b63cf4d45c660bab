// Package mo reads and writes catalogs in the GNU gettext MO format, so that compiled
// translations can also be consumed by gettext runtimes.
package mo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/lcat"
	"github.com/ubuntu/decorate"
	"golang.org/x/exp/slices"
)

// Magic is the first word of MO files, in the byte order of the file.
const Magic = 0x950412de

const headerSize = 28

// ErrInvalid is wrapped by every error returned when decoding a malformed MO file.
var ErrInvalid = errors.New("invalid MO file")

type pair struct {
	orig, trans string
}

// Encode returns l in the little-endian MO format, without hash table. Obsolete and
// untranslated entries are skipped.
func Encode(l *catalog.Locale) (b []byte, err error) {
	defer decorate.OnError(&err, "could not create MO file for locale %q", l.Tag)

	pairs := []pair{{orig: "", trans: l.Header.String()}}
	for _, e := range l.Entries {
		if e.Obsolete || !e.IsTranslated() {
			continue
		}
		orig := e.Key.ID()
		if e.Key.IsPlural() {
			orig += catalog.PluralSeparator + e.Key.Plural
		}
		pairs = append(pairs, pair{orig: orig, trans: strings.Join(e.Translations, catalog.PluralSeparator)})
	}
	slices.SortFunc(pairs, func(a, b pair) int { return strings.Compare(a.orig, b.orig) })
	for i := 1; i < len(pairs); i++ {
		if pairs[i].orig == pairs[i-1].orig {
			return nil, fmt.Errorf("duplicate key %q", pairs[i].orig)
		}
	}

	n := uint64(len(pairs))
	origTable := uint64(headerSize)
	transTable := origTable + 8*n
	offset := transTable + 8*n

	var origDesc, transDesc, data bytes.Buffer
	for _, p := range pairs {
		origDesc.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(p.orig))))
		origDesc.Write(binary.LittleEndian.AppendUint32(nil, uint32(offset+uint64(data.Len()))))
		data.WriteString(p.orig)
		data.WriteByte(0)
	}
	for _, p := range pairs {
		transDesc.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(p.trans))))
		transDesc.Write(binary.LittleEndian.AppendUint32(nil, uint32(offset+uint64(data.Len()))))
		data.WriteString(p.trans)
		data.WriteByte(0)
	}
	if total := offset + uint64(data.Len()); total > math.MaxUint32 {
		return nil, lcat.FormatCapacityError{Locale: l.Tag, Subject: "MO file", Size: total, Limit: math.MaxUint32}
	}

	var out bytes.Buffer
	for _, v := range []uint32{Magic, 0, uint32(n), uint32(origTable), uint32(transTable), 0, uint32(offset)} {
		out.Write(binary.LittleEndian.AppendUint32(nil, v))
	}
	out.Write(origDesc.Bytes())
	out.Write(transDesc.Bytes())
	out.Write(data.Bytes())

	return out.Bytes(), nil
}

// Write encodes l to w.
func Write(w io.Writer, l *catalog.Locale) error {
	b, err := Encode(l)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Decode reads a MO file of either byte order. The header comes from the entry with an empty
// original string. Entries are neither fuzzy nor obsolete, and have no source references.
func Decode(tag string, b []byte) (*catalog.Locale, error) {
	if len(b) < headerSize {
		return nil, invalidf("truncated header")
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(b) == Magic:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(b) == Magic:
		order = binary.BigEndian
	default:
		return nil, invalidf("bad magic %x", b[:4])
	}
	if major := order.Uint32(b[4:]) >> 16; major > 1 {
		return nil, invalidf("unsupported revision %d", major)
	}
	n := uint64(order.Uint32(b[8:]))
	origTable := uint64(order.Uint32(b[12:]))
	transTable := uint64(order.Uint32(b[16:]))

	str := func(table uint64, i uint64) (string, error) {
		desc := table + 8*i
		if desc+8 > uint64(len(b)) {
			return "", invalidf("string table out of bounds")
		}
		length := uint64(order.Uint32(b[desc:]))
		offset := uint64(order.Uint32(b[desc+4:]))
		if offset+length > uint64(len(b)) {
			return "", invalidf("string %d out of bounds", i)
		}
		return string(b[offset : offset+length]), nil
	}

	l := &catalog.Locale{Tag: tag}
	for i := uint64(0); i < n; i++ {
		orig, err := str(origTable, i)
		if err != nil {
			return nil, err
		}
		trans, err := str(transTable, i)
		if err != nil {
			return nil, err
		}

		if orig == "" {
			l.Header.Fields = catalog.ParseHeader(trans)
			continue
		}

		var k catalog.Key
		id, pl, isPlural := strings.Cut(orig, catalog.PluralSeparator)
		if ctx, singular, found := strings.Cut(id, catalog.ContextSeparator); found {
			k.Context, k.Singular = ctx, singular
		} else {
			k.Singular = id
		}
		translations := []string{trans}
		if isPlural {
			k.Plural = pl
			translations = strings.Split(trans, catalog.PluralSeparator)
		}
		l.Entries = append(l.Entries, &catalog.Entry{Key: k, Translations: translations})
	}

	return l, nil
}
