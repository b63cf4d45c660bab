// Package pipeline compiles one source set: it extracts the template from the sources, then
// validates, normalizes and encodes every locale catalog before bundling them into a pack.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/langpack/langpack/internal/acquire"
	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/consts"
	"github.com/langpack/langpack/internal/lcat"
	"github.com/langpack/langpack/internal/log"
	"github.com/langpack/langpack/internal/mo"
	"github.com/langpack/langpack/internal/normalize"
	"github.com/langpack/langpack/internal/pack"
	"github.com/langpack/langpack/internal/pot"
	"github.com/langpack/langpack/internal/scanner"
	"github.com/langpack/langpack/internal/stats"
	"golang.org/x/exp/slices"
)

// Config is the compilation policy, shared by every source set.
type Config struct {
	KeepFuzzy bool
	Orphans   normalize.OrphanPolicy
	// BaseLocale is the source language and the fallback of the pack. Defaults to consts.DefaultBaseLocale.
	BaseLocale string
	// StrictAcquisition turns per-locale acquisition failures into a failure of the whole compilation.
	StrictAcquisition bool
	// Year replaces the copyright year placeholders when positive.
	Year int
	// Jobs bounds how many locales are compiled at the same time. Defaults to the number of CPUs.
	Jobs int
	// EmitMO also produces a GNU MO file per locale.
	EmitMO bool
}

// Request is one source set to compile.
type Request struct {
	Name string
	// Root is the directory source references are relative to.
	Root string
	// Sources are scanned in this order.
	Sources []string
	// Markers overrides the default extraction markers.
	Markers []scanner.Marker
	// Description, when set, is appended to the template as an extra string.
	Description string
	Meta        pot.Meta
	// Locations rewrites the source references of the template.
	Locations pot.LocationTransformer
	// PreviousTemplate is the path of the template written by the previous run, if any.
	PreviousTemplate string
	// Catalogs are the acquired raw catalogs, one per locale.
	Catalogs []acquire.Result
}

// Result holds every artifact of a source set. Catalogs and MO are keyed by locale tag.
type Result struct {
	Template *catalog.Template
	POT      []byte
	Catalogs map[string][]byte
	MO       map[string][]byte
	Pack     []byte

	// Skipped lists the locales left out of the pack, sorted by locale.
	Skipped  []LocaleError
	Warnings []scanner.ExtractionWarning
	Stats    []stats.Locale
}

type compiled struct {
	locale string
	lcat   []byte
	mo     []byte
	stats  stats.Locale
	err    error
}

// Compile runs the whole pipeline for req. Failures of a single locale are reported in
// Result.Skipped. It returns a PipelineError when the template cannot be built, the base locale
// fails, or any locale fails to be acquired in strict mode.
func Compile(ctx context.Context, req Request, cfg Config) (res *Result, err error) {
	ctx = log.WithField(ctx, "source-set", req.Name)
	base := cfg.BaseLocale
	if base == "" {
		base = consts.DefaultBaseLocale
	}

	fail := func(err error, locales []LocaleError) (*Result, error) {
		return nil, PipelineError{SourceSet: req.Name, Err: err, Locales: locales}
	}

	res = &Result{
		Catalogs: make(map[string][]byte),
	}
	if cfg.EmitMO {
		res.MO = make(map[string][]byte)
	}

	x, err := Extract(ctx, req, cfg.Year)
	if err != nil {
		return fail(err, nil)
	}
	res.Template, res.POT, res.Warnings = x.Template, x.POT, x.Warnings

	// Locales, fanned out.
	inputs, skipped, err := selectCatalogs(ctx, req.Catalogs, base, cfg.StrictAcquisition)
	if err != nil {
		return fail(err, skipped)
	}
	hasBase := false
	for _, r := range inputs {
		if r.Locale == base {
			hasBase = true
		}
	}
	if !hasBase {
		log.Infof(ctx, "No catalog for base locale %s, using the source strings", base)
	}

	out := make([]compiled, len(inputs))
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i, r := range inputs {
		wg.Add(1)
		go func(i int, r acquire.Result) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out[i] = compiled{locale: r.Locale, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			out[i] = compileLocale(ctx, r, res.Template, cfg, r.Locale == base)
		}(i, r)
	}
	wg.Wait()
	if !hasBase {
		out = append(out, compileBase(Synthesize(res.Template, base), res.Template, cfg))
	}

	if err := ctx.Err(); err != nil {
		return fail(err, skipped)
	}

	// Fan in.
	for _, c := range out {
		if c.err != nil {
			if c.locale == base {
				return fail(fmt.Errorf("base locale %s: %w", base, c.err), skipped)
			}
			log.Warningf(ctx, "Skipping locale %s: %v", c.locale, c.err)
			skipped = append(skipped, LocaleError{Locale: c.locale, Err: c.err})
			continue
		}
		res.Catalogs[c.locale] = c.lcat
		if cfg.EmitMO {
			res.MO[c.locale] = c.mo
		}
		res.Stats = append(res.Stats, c.stats)
	}
	slices.SortStableFunc(skipped, func(a, b LocaleError) int { return strings.Compare(a.Locale, b.Locale) })
	slices.SortFunc(res.Stats, func(a, b stats.Locale) int { return strings.Compare(a.Tag, b.Tag) })
	res.Skipped = skipped

	res.Pack, err = pack.Encode(res.Template, res.Catalogs, base)
	if err != nil {
		return fail(err, skipped)
	}
	log.Infof(ctx, "Compiled %d locales, %d skipped", len(res.Catalogs), len(skipped))

	return res, nil
}

// Extraction is the template of a source set.
type Extraction struct {
	Template *catalog.Template
	POT      []byte
	Warnings []scanner.ExtractionWarning
}

// Extract builds and renders the template of req. year replaces the copyright year of the
// header when positive.
func Extract(ctx context.Context, req Request, year int) (x *Extraction, err error) {
	x = &Extraction{}

	b := pot.NewBuilder()
	s := scanner.Scanner{Root: req.Root, Markers: req.Markers}
	x.Warnings, err = s.Scan(ctx, req.Sources, b.Add)
	if err != nil {
		return nil, fmt.Errorf("could not extract strings: %w", err)
	}
	b.AddDescription(req.Name, req.Description)
	x.Template = b.Template()
	if req.Locations != nil {
		pot.TransformLocations(x.Template, req.Locations)
	}
	if err := lcat.CheckTemplate(x.Template); err != nil {
		return nil, err
	}

	meta := req.Meta
	if year > 0 {
		meta.Year = year
	}
	x.POT, err = pot.Render(req.PreviousTemplate, meta, x.Template)
	if err != nil {
		return nil, fmt.Errorf("could not render template: %w", err)
	}
	log.Infof(ctx, "Extracted %d strings from %d files", x.Template.Len(), len(req.Sources))

	return x, nil
}

// selectCatalogs drops the failed acquisitions and duplicated locales. A failed acquisition
// is fatal in strict mode or for the base locale.
func selectCatalogs(ctx context.Context, results []acquire.Result, base string, strict bool) (inputs []acquire.Result, skipped []LocaleError, err error) {
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Locale] {
			skipped = append(skipped, LocaleError{Locale: r.Locale, Err: errors.New("catalog supplied more than once")})
			continue
		}
		seen[r.Locale] = true

		if r.Err != nil {
			var acqErr acquire.AcquisitionError
			if !errors.As(r.Err, &acqErr) {
				r.Err = acquire.AcquisitionError{Locale: r.Locale, Err: r.Err}
			}
			if strict || r.Locale == base {
				return nil, append(skipped, LocaleError{Locale: r.Locale, Err: r.Err}), r.Err
			}
			log.Warningf(ctx, "Skipping locale %s: %v", r.Locale, r.Err)
			skipped = append(skipped, LocaleError{Locale: r.Locale, Err: r.Err})
			continue
		}
		inputs = append(inputs, r)
	}
	return inputs, skipped, nil
}

// compileLocale validates, normalizes and encodes one raw catalog.
func compileLocale(ctx context.Context, r acquire.Result, t *catalog.Template, cfg Config, isBase bool) compiled {
	raw, err := acquire.Decode(r)
	if err != nil {
		return compiled{locale: r.Locale, err: err}
	}

	l, err := normalize.Normalize(raw, normalize.Options{
		KeepFuzzy: cfg.KeepFuzzy,
		Orphans:   cfg.Orphans,
		Year:      cfg.Year,
		Template:  t,
	})
	if err != nil {
		return compiled{locale: r.Locale, err: err}
	}
	log.Debugf(ctx, "Locale %s: kept %d of %d entries", r.Locale, len(l.Entries), len(raw.Entries))

	if isBase {
		return compileBase(l, t, cfg)
	}
	return encode(l, t, cfg)
}

func compileBase(l *catalog.Locale, t *catalog.Template, cfg Config) compiled {
	return encode(complete(l, t), t, cfg)
}

func encode(l *catalog.Locale, t *catalog.Template, cfg Config) compiled {
	c := compiled{locale: l.Tag, stats: stats.Compute(t, l)}
	c.lcat, c.err = lcat.Encode(l)
	if c.err != nil {
		return c
	}
	if cfg.EmitMO {
		c.mo, c.err = mo.Encode(l)
	}
	return c
}
