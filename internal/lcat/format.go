// Package lcat encodes locale catalogs into the LCAT binary format and reads them back.
//
// Layout, all integers little-endian:
//
//	0   magic "LCAT"
//	4   version u16
//	6   number of plural forms u8
//	7   reserved u8
//	8   entry count u32
//	12  index offset u32
//	16  data offset u32
//	20  data length u32
//	24  locale tag length u8, locale tag
//	..  plural program length u16, plural program
//	idx entry count records of 18 bytes:
//	    hash u32, key offset u32, key length u16, value offset u32, value length u16, flags u8, forms u8
//	data keys and values
//
// Keys are the context and the singular joined by "\x04", followed by "\x00" and the plural
// form for plural keys. Values are the translated forms joined by "\x00". Records are sorted
// by hash, then by lookup key, and offsets are relative to the data section.
package lcat

import (
	"fmt"
	"hash/fnv"
	"math"
)

// Magic starts every binary catalog.
const Magic = "LCAT"

// Version is the format version written by Encode.
const Version = 1

const (
	headerSize = 24
	recordSize = 18

	flagPlural = 1 << 0
	flagFuzzy  = 1 << 1

	// MaxStringLength is the longest key or value a record can reference.
	MaxStringLength = math.MaxUint16
	// MaxForms is the highest number of translated forms of an entry.
	MaxForms = math.MaxUint8
	// MaxEntries is the highest number of entries of a catalog.
	MaxEntries = math.MaxUint32
	// MaxDataLength is the largest string data section.
	MaxDataLength = math.MaxUint32
	// MaxTagLength is the longest locale tag.
	MaxTagLength = math.MaxUint8
	// MaxProgramLength is the longest compiled plural rule.
	MaxProgramLength = math.MaxUint16
)

// FormatCapacityError is returned when a catalog does not fit in the limits of a binary format.
type FormatCapacityError struct {
	Locale string
	// Subject names what overflowed, such as a key or the data section.
	Subject string
	Size    uint64
	Limit   uint64
}

func (e FormatCapacityError) Error() string {
	return fmt.Sprintf("locale %s: %s is %d long, the format allows at most %d", e.Locale, e.Subject, e.Size, e.Limit)
}

// Hash is the lookup hash of a key identity (context "\x04" singular): 32-bit FNV-1a.
func Hash(id string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()
}
