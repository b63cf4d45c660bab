package acquire

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/langpack/langpack/internal/log"
	"golang.org/x/exp/slices"
	"gopkg.in/ini.v1"
)

const langPlaceholder = "<lang>"

// TxConfig acquires the catalogs downloaded by the Transifex client, as described by a
// .tx/config file. Paths of the configuration are relative to the parent of its .tx directory.
type TxConfig struct {
	Path string
	// Resource selects a resource section. The first one with a file_filter is used when empty.
	Resource string
}

type txResource struct {
	fileFilter string
	sourceLang string
	langMap    map[string]string
}

// Acquire implements Source.
func (c TxConfig) Acquire(ctx context.Context) ([]Result, error) {
	res, err := c.load()
	if err != nil {
		return nil, err
	}

	root := filepath.Dir(filepath.Dir(c.Path))
	pattern := filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(res.fileFilter, langPlaceholder, "*")))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid file_filter %q: %v", res.fileFilter, err)
	}
	slices.Sort(matches)

	var results []Result
	for _, m := range matches {
		remote, ok := matchLang(filepath.Join(root, filepath.FromSlash(res.fileFilter)), m)
		if !ok || remote == res.sourceLang {
			continue
		}
		locale := remote
		if mapped, ok := res.langMap[remote]; ok {
			locale = mapped
		}
		log.Debugf(ctx, "Transifex catalog for %s: %s", locale, m)
		results = append(results, read(locale, m))
	}

	slices.SortFunc(results, func(a, b Result) int { return strings.Compare(a.Locale, b.Locale) })
	return results, nil
}

func (c TxConfig) load() (res txResource, err error) {
	f, err := ini.Load(c.Path)
	if err != nil {
		return res, fmt.Errorf("could not load Transifex configuration: %v", err)
	}

	res.langMap = parseLangMap(f.Section("main").Key("lang_map").String())

	var section *ini.Section
	if c.Resource != "" {
		section, err = f.GetSection(c.Resource)
		if err != nil {
			return res, fmt.Errorf("no resource %q in Transifex configuration", c.Resource)
		}
	} else {
		for _, s := range f.Sections() {
			if s.Name() != "main" && s.HasKey("file_filter") {
				section = s
				break
			}
		}
		if section == nil {
			return res, errors.New("no resource with a file_filter in Transifex configuration")
		}
	}

	res.fileFilter = section.Key("file_filter").String()
	if !strings.Contains(res.fileFilter, langPlaceholder) {
		return res, fmt.Errorf("file_filter %q of resource %q has no %s placeholder", res.fileFilter, section.Name(), langPlaceholder)
	}
	res.sourceLang = section.Key("source_lang").String()
	for k, v := range parseLangMap(section.Key("lang_map").String()) {
		res.langMap[k] = v
	}

	return res, nil
}

// parseLangMap reads "remote: local, remote: local" mappings.
func parseLangMap(s string) map[string]string {
	m := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		remote, local, found := strings.Cut(pair, ":")
		if !found {
			continue
		}
		m[strings.TrimSpace(remote)] = strings.TrimSpace(local)
	}
	return m
}

// matchLang returns what the placeholder of filter stands for in path.
func matchLang(filter, path string) (string, bool) {
	prefix, suffix, _ := strings.Cut(filter, langPlaceholder)
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) || len(path) < len(prefix)+len(suffix) {
		return "", false
	}
	lang := path[len(prefix) : len(path)-len(suffix)]
	if lang == "" || strings.ContainsRune(lang, filepath.Separator) {
		return "", false
	}
	return lang, true
}
