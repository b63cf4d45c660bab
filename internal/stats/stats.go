// Package stats reports how much of a template each locale translates.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
	"golang.org/x/exp/slices"
)

// barWidth is the number of cells of a full progress bar, each cell standing for 4%.
const barWidth = 25

var partialCells = []string{"", "▏", "▎", "▍", "▌", "▋", "▊", "▉", "█"}

// Locale is the translation progress of one locale.
type Locale struct {
	Tag        string
	Translated int
	Total      int
}

// Compute counts the entries of l that translate a key of t. Obsolete, fuzzy and incomplete
// entries do not count.
func Compute(t *catalog.Template, l *catalog.Locale) Locale {
	s := Locale{Tag: l.Tag, Total: t.Len()}
	seen := make(map[string]bool)
	for _, e := range l.Entries {
		if e.Obsolete || e.Fuzzy || !e.IsTranslated() || !t.Has(e.Key) {
			continue
		}
		if seen[e.Key.ID()] {
			continue
		}
		seen[e.Key.ID()] = true
		s.Translated++
	}
	return s
}

// Complete reports whether every key of the template is translated.
func (s Locale) Complete() bool {
	return s.Translated >= s.Total
}

// Percentage returns the translated share in the [0, 100] range. An empty template is fully
// translated.
func (s Locale) Percentage() float64 {
	if s.Total == 0 {
		return 100
	}
	return math.Min(100, float64(s.Translated)/float64(s.Total)*100)
}

// ProgressBar draws a percentage with block characters, one cell per 4% and eighths of a cell
// for the remainder.
func ProgressBar(percentage float64) string {
	percentage = math.Max(0, math.Min(100, percentage))
	full := int(percentage) / 4
	partial := int(math.Round(math.Mod(percentage, 4) * 2))
	return strings.Repeat("█", full) + partialCells[partial]
}

// Report writes one line per locale, sorted by tag, after a line about the base locale.
func Report(w io.Writer, base string, total int, locales []Locale) error {
	locales = slices.Clone(locales)
	slices.SortFunc(locales, func(a, b Locale) int { return strings.Compare(a.Tag, b.Tag) })

	if _, err := fmt.Fprintf(w, "Base language is '%s' with %d strings\n\n", base, total); err != nil {
		return err
	}

	var tagWidth, countWidth int
	for _, l := range locales {
		tagWidth = max(tagWidth, len(l.Tag))
		countWidth = max(countWidth, len(fmt.Sprint(l.Translated)))
	}

	for _, l := range locales {
		if l.Tag == base {
			continue
		}
		edge := '░'
		if l.Complete() {
			edge = '▒'
		}
		if _, err := fmt.Fprintf(w, "%*s: %*d strings (%6.2f%% translated) %c%-*s%c\n",
			tagWidth+2, l.Tag, countWidth, l.Translated, l.Percentage(), edge, barWidth, ProgressBar(l.Percentage()), edge); err != nil {
			return err
		}
	}
	return nil
}
