package compiler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/langpack/langpack/internal/acquire"
	"github.com/langpack/langpack/internal/consts"
	"github.com/langpack/langpack/internal/i18n"
	"github.com/langpack/langpack/internal/log"
	"github.com/langpack/langpack/internal/normalize"
	"github.com/langpack/langpack/internal/output"
	"github.com/langpack/langpack/internal/pipeline"
	"github.com/langpack/langpack/internal/project"
)

// loadProject loads the configured project and the source sets named by args, all of them
// when args is empty.
func (a *App) loadProject(args []string) (*project.Project, []project.SourceSet, error) {
	p, err := project.Load(a.config.Project)
	if err != nil {
		return nil, nil, err
	}

	if len(args) == 0 {
		return p, p.SourceSets, nil
	}

	var sets []project.SourceSet
	for _, name := range args {
		s, ok := p.SourceSet(name)
		if !ok {
			return nil, nil, fmt.Errorf(i18n.G("unknown source set %q"), name)
		}
		sets = append(sets, s)
	}
	return p, sets, nil
}

// outputSet returns where the artifacts of s are written.
func (a *App) outputSet(p *project.Project, s project.SourceSet) output.Set {
	dir := a.config.Output
	if dir == "" {
		dir = p.Path(defaultOutput)
	}
	return output.Set{
		Dir:  filepath.Join(dir, s.Name),
		Name: s.Name,
		Base: a.baseLocale(),
		Root: p.Root,
	}
}

func (a *App) baseLocale() string {
	if a.config.BaseLocale == "" {
		return consts.DefaultBaseLocale
	}
	return a.config.BaseLocale
}

// pipelineConfig validates the compilation policy of the configuration.
func (a *App) pipelineConfig() (pipeline.Config, error) {
	orphans, err := normalize.ParseOrphanPolicy(a.config.OrphanPolicy)
	if err != nil {
		return pipeline.Config{}, err
	}
	year := a.config.Year
	if year <= 0 {
		year = time.Now().Year()
	}
	return pipeline.Config{
		KeepFuzzy:         a.config.KeepFuzzy,
		Orphans:           orphans,
		BaseLocale:        a.baseLocale(),
		StrictAcquisition: a.config.StrictAcquisition,
		Year:              year,
		Jobs:              a.config.Jobs,
		EmitMO:            a.config.EmitMO,
	}, nil
}

// settings fingerprints everything besides the inputs that changes the artifacts.
func settings(cfg pipeline.Config) string {
	return fmt.Sprintf("version=%s keep-fuzzy=%t orphan-policy=%s base-locale=%s strict-acquisition=%t year=%d emit-mo=%t",
		consts.Version, cfg.KeepFuzzy, cfg.Orphans, cfg.BaseLocale, cfg.StrictAcquisition, cfg.Year, cfg.EmitMO)
}

// request lists the sources of s.
func (a *App) request(p *project.Project, s project.SourceSet, cfg pipeline.Config) (pipeline.Request, output.Set, error) {
	set := a.outputSet(p, s)
	set.Settings = settings(cfg)

	files, err := p.Files(s)
	if err != nil {
		return pipeline.Request{}, set, err
	}
	set.Sources = files

	return pipeline.Request{
		Name:             s.Name,
		Root:             p.Root,
		Sources:          files,
		Description:      s.Description,
		Meta:             p.Meta(cfg.Year, time.Now()),
		Locations:        s.Locations(),
		PreviousTemplate: set.TemplatePath(),
	}, set, nil
}

// acquireCatalogs fetches the raw catalogs of s. A source that cannot be listed at all only fails
// in strict mode.
func acquireCatalogs(ctx context.Context, p *project.Project, s project.SourceSet, strict bool) ([]acquire.Result, error) {
	catalogs, err := p.Source(s).Acquire(ctx)
	if err != nil {
		if strict {
			return nil, fmt.Errorf("source set %s: %w", s.Name, err)
		}
		log.Warningf(ctx, "Compiling %s without translations: %v", s.Name, err)
		return nil, nil
	}
	return catalogs, nil
}

// prepare lists the sources of s and acquires its catalogs.
func (a *App) prepare(ctx context.Context, p *project.Project, s project.SourceSet, cfg pipeline.Config) (pipeline.Request, output.Set, error) {
	req, set, err := a.request(p, s, cfg)
	if err != nil {
		return req, set, err
	}
	catalogs, err := acquireCatalogs(ctx, p, s, cfg.StrictAcquisition)
	if err != nil {
		return req, set, err
	}
	req.Catalogs = catalogs
	set.Catalogs = catalogs
	return req, set, nil
}

// build compiles every source set of args and writes their artifacts. Source sets whose
// manifest matches their inputs are skipped unless force is set.
func (a *App) build(ctx context.Context, args []string, force bool, report func(s project.SourceSet, res *pipeline.Result, m *output.Manifest)) error {
	p, sets, err := a.loadProject(args)
	if err != nil {
		return err
	}
	cfg, err := a.pipelineConfig()
	if err != nil {
		return err
	}

	var errs error
	for _, s := range sets {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, set, err := a.prepare(ctx, p, s, cfg)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}

		if !force {
			upToDate, err := output.UpToDate(set)
			if err != nil {
				log.Warningf(ctx, "Could not check if %s is up to date: %v", s.Name, err)
			}
			if upToDate {
				log.Infof(ctx, "Source set %s is up to date", s.Name)
				report(s, nil, nil)
				continue
			}
		}

		res, err := pipeline.Compile(ctx, req, cfg)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		m, err := output.Write(ctx, set, res)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		report(s, res, m)
	}
	return errs
}
