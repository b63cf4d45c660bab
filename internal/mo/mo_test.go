package mo_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/mo"
	"github.com/snapcore/go-gettext"
	"github.com/stretchr/testify/require"
)

func german() *catalog.Locale {
	return &catalog.Locale{
		Tag: "de",
		Header: catalog.Header{Fields: []catalog.HeaderField{
			{Name: catalog.FieldContentType, Value: "text/plain; charset=UTF-8"},
			{Name: catalog.FieldPluralForms, Value: "nplurals=2; plural=(n != 1);"},
		}},
		Entries: []*catalog.Entry{
			{Key: catalog.Key{Singular: "Hello"}, Translations: []string{"Hallo"}},
			{Key: catalog.Key{Context: "menu", Singular: "Open"}, Translations: []string{"Öffnen"}},
			{Key: catalog.Key{Singular: "{0} file", Plural: "{0} files"}, Translations: []string{"{0} Datei", "{0} Dateien"}},
			{Key: catalog.Key{Singular: "Untranslated"}, Translations: []string{""}},
			{Key: catalog.Key{Singular: "Old"}, Translations: []string{"Alt"}, Obsolete: true},
		},
	}
}

func TestLoadableByGettext(t *testing.T) {
	t.Parallel()

	b, err := mo.Encode(german())
	require.NoError(t, err, "Encode should not fail")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.mo"), b, 0600), "Setup: could not write MO file")

	resolver := func(root, locale, domain string) string { return filepath.Join(root, locale+".mo") }
	c := gettext.NewTranslations(dir, "demo", resolver).Locale("de")

	require.Equal(t, "Hallo", c.Gettext("Hello"), "gettext should find singular translations")
	require.Equal(t, "{0} Datei", c.NGettext("{0} file", "{0} files", 1), "gettext should find the singular form")
	require.Equal(t, "{0} Dateien", c.NGettext("{0} file", "{0} files", 4), "gettext should find the plural form")
	require.Equal(t, "Untranslated", c.Gettext("Untranslated"), "Untranslated entries should not be written")
	require.Equal(t, "Old", c.Gettext("Old"), "Obsolete entries should not be written")
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	in := german()
	b, err := mo.Encode(in)
	require.NoError(t, err, "Encode should not fail")

	got, err := mo.Decode("de", b)
	require.NoError(t, err, "Decode should accept an encoded file")

	require.Equal(t, in.Header.Fields, got.Header.Fields, "Header should survive a round trip")
	// Entries are sorted by original string in MO files.
	want := []*catalog.Entry{in.Entries[0], in.Entries[1], in.Entries[2]}
	if diff := cmp.Diff(want, got.Entries); diff != "" {
		t.Fatalf("Decode returned unexpected entries (-want +got):\n%s", diff)
	}

	again, err := mo.Encode(got)
	require.NoError(t, err, "Encode should not fail on a decoded catalog")
	require.Equal(t, b, again, "Encoding should be stable across a round trip")
}

// toBigEndian swaps the byte order of the header and string tables.
func toBigEndian(b []byte) []byte {
	out := append([]byte(nil), b...)
	n := binary.LittleEndian.Uint32(b[8:])
	words := 7 + 4*int(n)
	for i := 0; i < words; i++ {
		binary.BigEndian.PutUint32(out[4*i:], binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func TestDecodeBigEndian(t *testing.T) {
	t.Parallel()

	b, err := mo.Encode(german())
	require.NoError(t, err, "Setup: Encode should not fail")

	le, err := mo.Decode("de", b)
	require.NoError(t, err, "Decode should accept little-endian files")
	be, err := mo.Decode("de", toBigEndian(b))
	require.NoError(t, err, "Decode should accept big-endian files")
	require.Equal(t, le, be, "Byte order should not change the decoded catalog")
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	valid, err := mo.Encode(german())
	require.NoError(t, err, "Setup: Encode should not fail")

	testCases := map[string][]byte{
		"Error on empty input":     {},
		"Error on bad magic":       append([]byte("nope"), valid[4:]...),
		"Error on truncated input": valid[:len(valid)-10],
		"Error on unknown revision": func() []byte {
			b := append([]byte(nil), valid...)
			binary.LittleEndian.PutUint32(b[4:], 2<<16)
			return b
		}(),
	}

	for name, b := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := mo.Decode("de", b)
			require.ErrorIs(t, err, mo.ErrInvalid, "Decode should reject a malformed file")
		})
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	require.NoError(t, mo.Write(&b, german()), "Write should not fail")
	want, err := mo.Encode(german())
	require.NoError(t, err, "Setup: Encode should not fail")
	require.Equal(t, string(want), b.String(), "Write should write the encoded file")

	dup := german()
	dup.Entries = append(dup.Entries, &catalog.Entry{Key: catalog.Key{Singular: "Hello"}, Translations: []string{"Servus"}})
	require.Error(t, mo.Write(&b, dup), "Write should fail on duplicate keys")
}
