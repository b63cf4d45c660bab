package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/i18n"
	"github.com/langpack/langpack/internal/lcat"
	"github.com/langpack/langpack/internal/pack"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

type inspectOptions struct {
	locale  string
	context string
	key     string
	count   int
}

func (a *App) installInspect() {
	var opts inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: i18n.G("Print the content of a binary catalog or pack, or look a string up in it"),
		Long: i18n.G(`Print the content of a binary catalog or pack, or look a string up in it.

Lookups in a pack fall back to its base locale. With --count, the plural form matching the count
is printed.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return inspect(cmd.OutOrStdout(), data, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.locale, "locale", "l", "", i18n.G("locale of the pack to list or look up, defaults to the base locale"))
	cmd.Flags().StringVar(&opts.context, "context", "", i18n.G("context of the looked up string"))
	cmd.Flags().StringVarP(&opts.key, "key", "k", "", i18n.G("string to look up"))
	cmd.Flags().IntVarP(&opts.count, "count", "n", -1, i18n.G("count selecting the plural form of the looked up string"))
	a.rootCmd.AddCommand(cmd)
}

func inspect(w io.Writer, data []byte, opts inspectOptions) error {
	switch {
	case bytes.HasPrefix(data, []byte(pack.Magic)):
		p, err := pack.Decode(data)
		if err != nil {
			return err
		}
		return inspectPack(w, p, opts)
	case bytes.HasPrefix(data, []byte(lcat.Magic)):
		c, err := lcat.Decode(data)
		if err != nil {
			return err
		}
		if opts.locale != "" && opts.locale != c.Locale() {
			return fmt.Errorf(i18n.G("catalog is for locale %s, not %s"), c.Locale(), opts.locale)
		}
		if opts.key != "" {
			return lookupCatalog(w, c, opts)
		}
		printCatalog(w, c)
		return nil
	}
	return errors.New(i18n.G("not a binary catalog nor a pack"))
}

func inspectPack(w io.Writer, p *pack.Pack, opts inspectOptions) error {
	locale := opts.locale
	if locale == "" {
		locale = p.Base
	}

	if opts.key != "" {
		if opts.count >= 0 {
			s, from, ok := p.Plural(locale, opts.context, opts.key, uint32(opts.count))
			if !ok {
				return notFound(opts)
			}
			fmt.Fprintf(w, "%s\t%s\n", from, s)
			return nil
		}
		m, from, ok := p.Lookup(locale, opts.context, opts.key)
		if !ok {
			return notFound(opts)
		}
		fmt.Fprintf(w, "%s\t%s\n", from, strings.Join(m.Forms, " | "))
		return nil
	}

	if opts.locale != "" {
		c, ok := p.Catalog(opts.locale)
		if !ok {
			return fmt.Errorf(i18n.G("no locale %s in pack"), opts.locale)
		}
		printCatalog(w, c)
		return nil
	}

	fmt.Fprintf(w, i18n.G("Base locale: %s")+"\n", p.Base)
	fmt.Fprintf(w, i18n.G("Template strings: %d")+"\n", p.TemplateEntries)
	fmt.Fprintf(w, i18n.G("Template digest: %x")+"\n", p.Digest)
	fmt.Fprintf(w, i18n.G("Locales: %d")+"\n", len(p.Locales))
	for _, l := range p.Locales {
		fmt.Fprintf(w, i18n.G("  %s: %d translated, %d bytes at %d")+"\n", l.Tag, l.Translated, l.Length, l.Offset)
	}
	return nil
}

func lookupCatalog(w io.Writer, c *lcat.Catalog, opts inspectOptions) error {
	if opts.count >= 0 {
		s, ok := c.Plural(opts.context, opts.key, uint32(opts.count))
		if !ok {
			return notFound(opts)
		}
		fmt.Fprintln(w, s)
		return nil
	}
	m, ok := c.Lookup(opts.context, opts.key)
	if !ok {
		return notFound(opts)
	}
	fmt.Fprintln(w, strings.Join(m.Forms, " | "))
	return nil
}

func notFound(opts inspectOptions) error {
	return fmt.Errorf(i18n.G("no translation for %v"), catalog.Key{Context: opts.context, Singular: opts.key})
}

// printCatalog lists the messages of c ordered by key.
func printCatalog(w io.Writer, c *lcat.Catalog) {
	fmt.Fprintf(w, i18n.G("Locale: %s")+"\n", c.Locale())
	fmt.Fprintf(w, i18n.G("Plural forms: %v")+"\n", c.Rule())
	fmt.Fprintf(w, i18n.G("Entries: %d")+"\n", c.Len())

	msgs := c.Entries()
	slices.SortFunc(msgs, func(a, b lcat.Message) int { return a.Key.Compare(b.Key) })
	for _, m := range msgs {
		key := m.Key.String()
		if m.Key.IsPlural() {
			key += fmt.Sprintf(i18n.G(" (plural %q)"), m.Key.Plural)
		}
		var fuzzy string
		if m.Fuzzy {
			fuzzy = i18n.G(" [fuzzy]")
		}
		fmt.Fprintf(w, "%s: %s%s\n", key, strings.Join(m.Forms, " | "), fuzzy)
	}
}
