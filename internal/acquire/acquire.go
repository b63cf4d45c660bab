// Package acquire collects the raw locale catalogs of a source set. A locale that cannot be
// acquired is reported on its own and never prevents other locales from being collected.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/consts"
	"github.com/langpack/langpack/internal/log"
	"github.com/langpack/langpack/internal/mo"
	"github.com/langpack/langpack/internal/po"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AcquisitionError reports a locale whose catalog could not be obtained.
type AcquisitionError struct {
	Locale string
	Err    error
}

func (e AcquisitionError) Error() string {
	return fmt.Sprintf("could not acquire catalog for locale %s: %v", e.Locale, e.Err)
}

func (e AcquisitionError) Unwrap() error {
	return e.Err
}

// Result is the raw catalog of one locale, or why it is missing.
type Result struct {
	Locale string
	Path   string
	Data   []byte
	Err    error
}

// Source provides raw catalogs, sorted by locale.
type Source interface {
	Acquire(ctx context.Context) ([]Result, error)
}

// Decode parses the raw catalog of r according to its file extension.
func Decode(r Result) (*catalog.Locale, error) {
	if r.Err != nil {
		return nil, r.Err
	}

	var (
		l   *catalog.Locale
		err error
	)
	if strings.EqualFold(filepath.Ext(r.Path), consts.MoExtension) {
		l, err = mo.Decode(r.Locale, r.Data)
	} else {
		l, err = po.Parse(r.Path, bytes.NewReader(r.Data))
	}
	if err != nil {
		return nil, err
	}
	l.Tag = r.Locale
	return l, nil
}

// Dir reads <locale>.po files, or <locale>.mo when no PO file exists, from a directory.
type Dir struct {
	Path string
	// Locales, when set, are the expected locales. Missing ones are reported as failures and
	// other files are ignored.
	Locales []string
}

// Acquire implements Source.
func (d Dir) Acquire(ctx context.Context) ([]Result, error) {
	entries, err := os.ReadDir(d.Path)
	if errors.Is(err, fs.ErrNotExist) && len(d.Locales) == 0 {
		log.Infof(ctx, "No catalog directory %s, no locale to compile", d.Path)
		return nil, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not list catalogs: %v", err)
	}

	found := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != consts.CatalogExtension && ext != consts.MoExtension {
			continue
		}
		locale := strings.TrimSuffix(e.Name(), ext)
		if prev, ok := found[locale]; ok && filepath.Ext(prev) == consts.CatalogExtension {
			continue
		}
		found[locale] = filepath.Join(d.Path, e.Name())
	}

	locales := d.Locales
	if len(locales) == 0 {
		locales = maps.Keys(found)
	}
	locales = slices.Clone(locales)
	slices.Sort(locales)
	locales = slices.Compact(locales)

	results := make([]Result, 0, len(locales))
	for _, locale := range locales {
		p, ok := found[locale]
		if !ok {
			results = append(results, Result{Locale: locale, Err: AcquisitionError{Locale: locale, Err: fmt.Errorf("no catalog in %s", d.Path)}})
			continue
		}
		results = append(results, read(locale, p))
	}
	return results, nil
}

func read(locale, path string) Result {
	r := Result{Locale: locale, Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		r.Err = AcquisitionError{Locale: locale, Err: err}
		return r
	}
	if err := catalog.ValidateTag(locale); err != nil {
		r.Err = AcquisitionError{Locale: locale, Err: err}
		return r
	}
	r.Data = data
	return r
}
