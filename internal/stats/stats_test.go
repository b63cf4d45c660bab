package stats_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/stats"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	tpl := catalog.NewTemplate()
	for _, s := range []string{"One", "Two", "Three", "Four"} {
		tpl.Append(&catalog.TemplateEntry{Key: catalog.Key{Singular: s}})
	}

	l := &catalog.Locale{
		Tag: "de",
		Entries: []*catalog.Entry{
			{Key: catalog.Key{Singular: "One"}, Translations: []string{"Eins"}},
			{Key: catalog.Key{Singular: "Two"}, Translations: []string{"Zwei"}, Fuzzy: true},
			{Key: catalog.Key{Singular: "Three"}, Translations: []string{""}},
			{Key: catalog.Key{Singular: "Four"}, Translations: []string{"Vier"}, Obsolete: true},
			{Key: catalog.Key{Singular: "Five"}, Translations: []string{"Fünf"}},
		},
	}

	got := stats.Compute(tpl, l)
	require.Equal(t, stats.Locale{Tag: "de", Translated: 1, Total: 4}, got, "Only confirmed translations of template keys should count")
	require.InDelta(t, 25.0, got.Percentage(), 0.001, "Percentage should be the translated share")
	require.False(t, got.Complete(), "Locale should not be complete")
}

func TestPercentage(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		translated int
		total      int

		want float64
	}{
		"Empty template is fully translated": {want: 100},
		"Nothing translated":                 {total: 3, want: 0},
		"Half translated":                    {translated: 2, total: 4, want: 50},
		"Never above one hundred":            {translated: 5, total: 4, want: 100},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := stats.Locale{Translated: tc.translated, Total: tc.total}
			require.InDelta(t, tc.want, s.Percentage(), 0.001, "Unexpected percentage")
		})
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		percentage float64

		want string
	}{
		"Zero draws nothing":               {percentage: 0, want: ""},
		"Full bar":                         {percentage: 100, want: strings.Repeat("█", 25)},
		"Half a cell":                      {percentage: 50, want: strings.Repeat("█", 12) + "▌"},
		"Three eighths of a cell":          {percentage: 37.5, want: strings.Repeat("█", 9) + "▍"},
		"Rounded up to a full cell":        {percentage: 99.9, want: strings.Repeat("█", 25)},
		"Negative values are clamped to 0": {percentage: -3, want: ""},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, stats.ProgressBar(tc.percentage), "Unexpected progress bar")
		})
	}
}

func TestReport(t *testing.T) {
	t.Parallel()

	locales := []stats.Locale{
		{Tag: "fr", Translated: 2, Total: 4},
		{Tag: "en", Translated: 4, Total: 4},
		{Tag: "de", Translated: 4, Total: 4},
	}

	var buf bytes.Buffer
	err := stats.Report(&buf, "en", 4, locales)
	require.NoError(t, err, "Report should not fail")

	want := "Base language is 'en' with 4 strings\n\n" +
		"  de: 4 strings (100.00% translated) ▒" + strings.Repeat("█", 25) + "▒\n" +
		"  fr: 2 strings ( 50.00% translated) ░" + strings.Repeat("█", 12) + "▌" + strings.Repeat(" ", 12) + "░\n"
	require.Equal(t, want, buf.String(), "Unexpected report")
}
