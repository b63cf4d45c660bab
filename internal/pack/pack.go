// Package pack bundles the binary catalogs of one source set into a single LPAK file.
//
// Layout, all integers little-endian:
//
//	0   magic "LPAK"
//	4   version u16
//	6   locale count u16
//	8   template entry count u32
//	12  template digest, 8 bytes
//	20  base locale tag length u8, base locale tag
//	..  table of contents sorted by tag, per locale:
//	    tag length u8, tag, offset u32, length u32, translated entries u32
//	..  binary catalogs in table of contents order
//
// Offsets are relative to the start of the pack.
package pack

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/lcat"
	"github.com/ubuntu/decorate"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Magic starts every pack.
const Magic = "LPAK"

// Version is the format version written by Encode.
const Version = 1

const (
	fixedHeaderSize = 20
	digestSize      = 8
)

// ErrInvalid is wrapped by every error returned when decoding a malformed pack.
var ErrInvalid = errors.New("invalid pack")

// Digest identifies the template a pack was built against, from its keys in order.
func Digest(t *catalog.Template) [digestSize]byte {
	h := sha256.New()
	for _, k := range t.Keys() {
		h.Write([]byte(k.ID()))
		h.Write([]byte{0})
		h.Write([]byte(k.Plural))
		h.Write([]byte{0})
	}
	var d [digestSize]byte
	copy(d[:], h.Sum(nil))
	return d
}

// Encode bundles catalogs, keyed by locale tag, with base as the fallback locale. It fails if
// base is not one of the catalogs. The same input always produces the same bytes.
func Encode(t *catalog.Template, catalogs map[string][]byte, base string) (b []byte, err error) {
	defer decorate.OnError(&err, "could not create pack")

	if _, ok := catalogs[base]; !ok {
		return nil, fmt.Errorf("base locale %q is not part of the compiled locales", base)
	}
	if len(catalogs) > math.MaxUint16 {
		return nil, lcat.FormatCapacityError{Locale: base, Subject: "locale count", Size: uint64(len(catalogs)), Limit: math.MaxUint16}
	}
	if uint64(t.Len()) > math.MaxUint32 {
		return nil, lcat.FormatCapacityError{Locale: base, Subject: "template entry count", Size: uint64(t.Len()), Limit: math.MaxUint32}
	}

	tags := maps.Keys(catalogs)
	slices.Sort(tags)

	type tocEntry struct {
		tag        string
		offset     uint64
		length     uint64
		translated uint32
	}
	toc := make([]tocEntry, 0, len(tags))

	headerLen := uint64(fixedHeaderSize + 1 + len(base))
	for _, tag := range tags {
		if len(tag) == 0 || len(tag) > lcat.MaxTagLength {
			return nil, lcat.FormatCapacityError{Locale: tag, Subject: "locale tag", Size: uint64(len(tag)), Limit: lcat.MaxTagLength}
		}
		c, err := lcat.Decode(catalogs[tag])
		if err != nil {
			return nil, fmt.Errorf("catalog of locale %q: %w", tag, err)
		}
		if c.Locale() != tag {
			return nil, fmt.Errorf("catalog of locale %q is for locale %q", tag, c.Locale())
		}
		headerLen += uint64(1 + len(tag) + 12)
		toc = append(toc, tocEntry{tag: tag, length: uint64(len(catalogs[tag])), translated: uint32(c.Len())})
	}

	offset := headerLen
	for i := range toc {
		toc[i].offset = offset
		offset += toc[i].length
	}
	if offset > math.MaxUint32 {
		return nil, lcat.FormatCapacityError{Locale: base, Subject: "pack", Size: offset, Limit: math.MaxUint32}
	}

	var buf bytes.Buffer
	buf.Grow(int(offset))
	buf.WriteString(Magic)
	buf.Write(binary.LittleEndian.AppendUint16(nil, Version))
	buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(len(toc))))
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(t.Len())))
	digest := Digest(t)
	buf.Write(digest[:])
	buf.WriteByte(uint8(len(base)))
	buf.WriteString(base)

	for _, e := range toc {
		buf.WriteByte(uint8(len(e.tag)))
		buf.WriteString(e.tag)
		var rec []byte
		rec = binary.LittleEndian.AppendUint32(rec, uint32(e.offset))
		rec = binary.LittleEndian.AppendUint32(rec, uint32(e.length))
		rec = binary.LittleEndian.AppendUint32(rec, e.translated)
		buf.Write(rec)
	}
	for _, e := range toc {
		buf.Write(catalogs[e.tag])
	}

	return buf.Bytes(), nil
}
