package lcat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/plural"
	"github.com/ubuntu/decorate"
	"golang.org/x/exp/slices"
)

type record struct {
	hash   uint32
	id     string
	key    string
	value  string
	flags  uint8
	forms  uint8
	keyOff uint32
	valOff uint32
}

// Rule returns the compiled plural rule of l, the Germanic rule when it declares none.
func Rule(l *catalog.Locale) (*plural.Rule, error) {
	expr, ok := l.Header.PluralForms()
	if !ok || strings.TrimSpace(expr) == "" {
		return plural.Default(), nil
	}
	return plural.Parse(expr)
}

// Encode compiles a normalized catalog. The same catalog always produces the same bytes.
// Obsolete entries are skipped.
func Encode(l *catalog.Locale) (b []byte, err error) {
	defer decorate.OnError(&err, "could not encode catalog for locale %q", l.Tag)

	rule, err := Rule(l)
	if err != nil {
		return nil, err
	}
	program := rule.Program()

	if len(l.Tag) > MaxTagLength {
		return nil, FormatCapacityError{Locale: l.Tag, Subject: "locale tag", Size: uint64(len(l.Tag)), Limit: MaxTagLength}
	}
	if len(program) > MaxProgramLength {
		return nil, FormatCapacityError{Locale: l.Tag, Subject: "plural rule", Size: uint64(len(program)), Limit: MaxProgramLength}
	}

	records, err := buildRecords(l)
	if err != nil {
		return nil, err
	}

	// Data section, in record order.
	var dataLen uint64
	for i := range records {
		records[i].keyOff = uint32(dataLen)
		dataLen += uint64(len(records[i].key))
		records[i].valOff = uint32(dataLen)
		dataLen += uint64(len(records[i].value))
		if dataLen > MaxDataLength {
			return nil, FormatCapacityError{Locale: l.Tag, Subject: "string data", Size: dataLen, Limit: MaxDataLength}
		}
	}

	indexOff := uint64(headerSize + 1 + len(l.Tag) + 2 + len(program))
	dataOff := indexOff + uint64(len(records))*recordSize
	if dataOff+dataLen > math.MaxUint32 {
		return nil, FormatCapacityError{Locale: l.Tag, Subject: "catalog", Size: dataOff + dataLen, Limit: math.MaxUint32}
	}

	var buf bytes.Buffer
	buf.Grow(int(dataOff + dataLen))

	buf.WriteString(Magic)
	buf.Write(binary.LittleEndian.AppendUint16(nil, Version))
	buf.WriteByte(uint8(rule.NPlurals))
	buf.WriteByte(0)
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(records))))
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(indexOff)))
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(dataOff)))
	buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(dataLen)))
	buf.WriteByte(uint8(len(l.Tag)))
	buf.WriteString(l.Tag)
	buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(len(program))))
	buf.Write(program)

	for _, r := range records {
		rec := make([]byte, 0, recordSize)
		rec = binary.LittleEndian.AppendUint32(rec, r.hash)
		rec = binary.LittleEndian.AppendUint32(rec, r.keyOff)
		rec = binary.LittleEndian.AppendUint16(rec, uint16(len(r.key)))
		rec = binary.LittleEndian.AppendUint32(rec, r.valOff)
		rec = binary.LittleEndian.AppendUint16(rec, uint16(len(r.value)))
		rec = append(rec, r.flags, r.forms)
		buf.Write(rec)
	}

	for _, r := range records {
		buf.WriteString(r.key)
		buf.WriteString(r.value)
	}

	return buf.Bytes(), nil
}

func buildRecords(l *catalog.Locale) ([]record, error) {
	records := make([]record, 0, len(l.Entries))
	seen := make(map[string]bool, len(l.Entries))

	for _, e := range l.Entries {
		if e.Obsolete {
			continue
		}

		id := e.Key.ID()
		if seen[id] {
			return nil, fmt.Errorf("duplicate key %v", e.Key)
		}
		seen[id] = true

		if strings.Contains(e.Key.Singular, catalog.ContextSeparator) || strings.Contains(e.Key.Context, catalog.ContextSeparator) {
			return nil, fmt.Errorf("key %v contains the context separator", e.Key)
		}
		for _, s := range append([]string{e.Key.Context, e.Key.Singular, e.Key.Plural}, e.Translations...) {
			if strings.Contains(s, catalog.PluralSeparator) {
				return nil, fmt.Errorf("entry %v contains a NUL byte", e.Key)
			}
		}

		r := record{hash: Hash(id), id: id, key: id}
		if e.Key.IsPlural() {
			r.key += catalog.PluralSeparator + e.Key.Plural
			r.flags |= flagPlural
		}
		if e.Fuzzy {
			r.flags |= flagFuzzy
		}
		if len(e.Translations) == 0 {
			return nil, fmt.Errorf("entry %v has no translation", e.Key)
		}
		if len(e.Translations) > MaxForms {
			return nil, FormatCapacityError{Locale: l.Tag, Subject: fmt.Sprintf("number of forms of %v", e.Key), Size: uint64(len(e.Translations)), Limit: MaxForms}
		}
		r.forms = uint8(len(e.Translations))
		r.value = strings.Join(e.Translations, catalog.PluralSeparator)

		if len(r.key) > MaxStringLength {
			return nil, FormatCapacityError{Locale: l.Tag, Subject: fmt.Sprintf("key %.40q", e.Key.Singular), Size: uint64(len(r.key)), Limit: MaxStringLength}
		}
		if len(r.value) > MaxStringLength {
			return nil, FormatCapacityError{Locale: l.Tag, Subject: fmt.Sprintf("translation of %.40q", e.Key.Singular), Size: uint64(len(r.value)), Limit: MaxStringLength}
		}

		records = append(records, r)
	}

	if uint64(len(records)) > MaxEntries {
		return nil, FormatCapacityError{Locale: l.Tag, Subject: "entry count", Size: uint64(len(records)), Limit: MaxEntries}
	}

	slices.SortFunc(records, compareRecords)
	return records, nil
}

func compareRecords(a, b record) int {
	if a.hash != b.hash {
		if a.hash < b.hash {
			return -1
		}
		return 1
	}
	return strings.Compare(a.id, b.id)
}

// CheckTemplate verifies that every key of t fits in a binary catalog.
func CheckTemplate(t *catalog.Template) error {
	for _, k := range t.Keys() {
		size := len(k.ID())
		if k.IsPlural() {
			size += len(catalog.PluralSeparator) + len(k.Plural)
		}
		if size > MaxStringLength {
			return FormatCapacityError{Locale: "template", Subject: fmt.Sprintf("key %.40q", k.Singular), Size: uint64(size), Limit: MaxStringLength}
		}
	}
	if uint64(t.Len()) > MaxEntries {
		return FormatCapacityError{Locale: "template", Subject: "entry count", Size: uint64(t.Len()), Limit: MaxEntries}
	}
	return nil
}
