package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/langpack/langpack/internal/acquire"
	"github.com/langpack/langpack/internal/catalog"
	"github.com/langpack/langpack/internal/consts"
	"github.com/langpack/langpack/internal/i18n"
	"github.com/langpack/langpack/internal/lcat"
	"github.com/langpack/langpack/internal/log"
	"github.com/langpack/langpack/internal/normalize"
	"github.com/langpack/langpack/internal/output"
	"github.com/langpack/langpack/internal/pipeline"
	"github.com/langpack/langpack/internal/project"
	"github.com/langpack/langpack/internal/scanner"
	"github.com/langpack/langpack/internal/stats"
	"github.com/langpack/langpack/internal/watch"
	"github.com/spf13/cobra"
)

func (a *App) installExtract() {
	cmd := &cobra.Command{
		Use:   "extract [SOURCE-SET...]",
		Short: i18n.G("Extract the translatable strings of the sources into templates"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.extract(a.ctx, cmd, args)
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) extract(ctx context.Context, cmd *cobra.Command, args []string) error {
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
		req, set, err := a.request(p, s, cfg)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		x, err := pipeline.Extract(ctx, req, cfg.Year)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("source set %s: %w", s.Name, err))
			continue
		}
		if _, err := output.WriteFile(set.TemplatePath(), x.POT); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		printWarnings(cmd, x.Warnings)
		fmt.Fprintf(cmd.OutOrStdout(), i18n.G("%s: %d strings extracted into %s")+"\n", s.Name, x.Template.Len(), set.TemplatePath())
	}
	return errs
}

func (a *App) installValidate() {
	cmd := &cobra.Command{
		Use:   "validate [FILE...]",
		Short: i18n.G("Check locale catalogs"),
		Long: i18n.G(`Check locale catalogs.

Without arguments, every catalog of every source set of the project is checked against the template
extracted from its sources. Otherwise, only the given PO or MO files are checked on their own.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return a.validateFiles(cmd, args)
			}
			return a.validateProject(a.ctx, cmd)
		},
	}
	a.rootCmd.AddCommand(cmd)
}

// checkCatalog decodes r and makes sure it compiles against t, when not nil.
func checkCatalog(r acquire.Result, t *catalog.Template, cfg pipeline.Config) (*catalog.Locale, error) {
	l, err := acquire.Decode(r)
	if err != nil {
		return nil, err
	}
	n, err := normalize.Normalize(l, normalize.Options{
		KeepFuzzy: cfg.KeepFuzzy,
		Orphans:   cfg.Orphans,
		Year:      cfg.Year,
		Template:  t,
	})
	if err != nil {
		return nil, err
	}
	if _, err := lcat.Encode(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (a *App) validateFiles(cmd *cobra.Command, files []string) error {
	cfg, err := a.pipelineConfig()
	if err != nil {
		return err
	}

	var errs error
	for _, path := range files {
		data, err := os.ReadFile(path)
		r := acquire.Result{
			Locale: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Path:   path,
			Data:   data,
			Err:    err,
		}
		l, err := checkCatalog(r, nil, cfg)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), i18n.G("%s: %d translations")+"\n", path, len(l.Entries))
	}
	return errs
}

func (a *App) validateProject(ctx context.Context, cmd *cobra.Command) error {
	p, sets, err := a.loadProject(nil)
	if err != nil {
		return err
	}
	cfg, err := a.pipelineConfig()
	if err != nil {
		return err
	}

	var errs error
	for _, s := range sets {
		req, _, err := a.prepare(ctx, p, s, cfg)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		x, err := pipeline.Extract(ctx, req, cfg.Year)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("source set %s: %w", s.Name, err))
			continue
		}
		for _, r := range req.Catalogs {
			l, err := checkCatalog(r, x.Template, cfg)
			if err != nil {
				errs = errors.Join(errs, fmt.Errorf("source set %s: %w", s.Name, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), i18n.G("%s: %s: %d translations")+"\n", s.Name, r.Locale, len(l.Entries))
		}
	}
	return errs
}

func (a *App) installShorten() {
	cmd := &cobra.Command{
		Use:   "shorten [SOURCE-SET...]",
		Short: i18n.G("Strip source references from the PO files of the project"),
		Long: i18n.G(`Strip source references and the last translator from the PO files of the project, and fill
the placeholders of their headers. Fuzzy and obsolete translations are kept.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shorten(a.ctx, cmd, args)
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) shorten(ctx context.Context, cmd *cobra.Command, args []string) error {
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
		if s.TxConfig != "" {
			log.Infof(ctx, "Source set %s is translated on Transifex, not shortening its catalogs", s.Name)
			continue
		}
		results, err := acquire.Dir{Path: p.Path(s.PoDir)}.Acquire(ctx)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		for _, r := range results {
			if filepath.Ext(r.Path) != consts.CatalogExtension {
				continue
			}
			l, err := acquire.Decode(r)
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			short := normalize.Shorten(l, normalize.ShortenOptions{
				Package:         p.Package.Name,
				CopyrightHolder: p.Package.CopyrightHolder,
				Year:            cfg.Year,
			})

			var buf bytes.Buffer
			if err := catalog.WriteLocale(&buf, short); err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			changed, err := output.WriteFile(r.Path, buf.Bytes())
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			if changed {
				fmt.Fprintf(cmd.OutOrStdout(), i18n.G("%s: shortened")+"\n", r.Path)
			}
		}
	}
	return errs
}

func (a *App) installCompile() {
	var force bool
	cmd := &cobra.Command{
		Use:   "compile [SOURCE-SET...]",
		Short: i18n.G("Compile the binary catalogs and packs of the project"),
		Long: i18n.G(`Compile the binary catalogs and packs of the project.

Source sets whose sources, catalogs and settings did not change since the last compilation are skipped.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(a.ctx, args, force, reporter(cmd))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, i18n.G("compile even when the outputs are up to date"))
	a.rootCmd.AddCommand(cmd)
}

// reporter prints the outcome of the compilation of a source set.
func reporter(cmd *cobra.Command) func(s project.SourceSet, res *pipeline.Result, m *output.Manifest) {
	return func(s project.SourceSet, res *pipeline.Result, m *output.Manifest) {
		out := cmd.OutOrStdout()
		if res == nil {
			fmt.Fprintf(out, i18n.G("%s: up to date")+"\n", s.Name)
			return
		}
		printWarnings(cmd, res.Warnings)
		fmt.Fprintf(out, i18n.G("%s: %d strings, %d locales compiled, %d outputs")+"\n", s.Name, res.Template.Len(), len(res.Catalogs), len(m.Outputs))
		for _, skip := range res.Skipped {
			fmt.Fprintf(out, i18n.G("%s: skipped %s: %v")+"\n", s.Name, skip.Locale, skip.Err)
		}
	}
}

func printWarnings(cmd *cobra.Command, warnings []scanner.ExtractionWarning) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), i18n.G("warning: %v")+"\n", w)
	}
}

func (a *App) installStats() {
	cmd := &cobra.Command{
		Use:   "stats [SOURCE-SET...]",
		Short: i18n.G("Print the translation progress of each locale"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.stats(a.ctx, cmd, args)
		},
	}
	a.rootCmd.AddCommand(cmd)
}

func (a *App) stats(ctx context.Context, cmd *cobra.Command, args []string) error {
	p, sets, err := a.loadProject(args)
	if err != nil {
		return err
	}
	cfg, err := a.pipelineConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var errs error
	for i, s := range sets {
		req, _, err := a.prepare(ctx, p, s, cfg)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		res, err := pipeline.Compile(ctx, req, cfg)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}

		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, i18n.G("Source set %s")+"\n", s.Name)
		if err := stats.Report(out, cfg.BaseLocale, res.Template.Len(), res.Stats); err != nil {
			return err
		}
	}
	return errs
}

func (a *App) installWatch() {
	cmd := &cobra.Command{
		Use:   "watch [SOURCE-SET...]",
		Short: i18n.G("Compile the project and recompile it whenever its sources or catalogs change"),
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd, args)
		},
	}
	a.rootCmd.AddCommand(cmd)
}

// watch runs until the app quits.
func (a *App) watch(cmd *cobra.Command, args []string) error {
	ctx := a.ctx

	p, sets, err := a.loadProject(args)
	if err != nil {
		return err
	}

	paths := []string{a.config.Project}
	extensions := make(map[string]bool)
	for _, ext := range []string{consts.CatalogExtension, consts.MoExtension, filepath.Ext(consts.ProjectFileName)} {
		extensions[ext] = true
	}
	for _, s := range sets {
		for _, src := range s.Sources {
			paths = append(paths, p.Path(src))
		}
		for _, ext := range s.Extensions {
			extensions[ext] = true
		}
		if s.TxConfig != "" {
			paths = append(paths, filepath.Dir(p.Path(s.TxConfig)))
		} else {
			paths = append(paths, p.Path(s.PoDir))
		}
	}

	w, err := watch.New(ctx, paths, func(path string) bool {
		return extensions[filepath.Ext(path)] || filepath.Base(path) == "config"
	}, watch.DefaultDebounce)
	if err != nil {
		return err
	}

	report := reporter(cmd)
	if err := a.build(ctx, args, false, report); err != nil {
		log.Error(ctx, err)
	}

	return w.Run(ctx, func(ctx context.Context, changed []string) {
		log.Infof(ctx, "Recompiling after changes to %s", strings.Join(changed, ", "))
		if err := a.build(ctx, args, false, report); err != nil {
			log.Error(ctx, err)
		}
	})
}
