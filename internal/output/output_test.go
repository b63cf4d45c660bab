package output_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/langpack/langpack/internal/acquire"
	"github.com/langpack/langpack/internal/output"
	"github.com/langpack/langpack/internal/pipeline"
	"github.com/langpack/langpack/internal/testutils"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	s := newSet(t)
	res := &pipeline.Result{
		POT:      []byte("template"),
		Pack:     []byte("pack"),
		Catalogs: map[string][]byte{"de": []byte("german"), "en": []byte("english")},
		MO:       map[string][]byte{"de": []byte("german mo")},
		Skipped:  []pipeline.LocaleError{{Locale: "it", Err: errors.New("broken catalog")}},
	}

	m, err := output.Write(context.Background(), s, res)
	require.NoError(t, err, "Write should not fail")

	want := map[string]string{
		"main.pot":                  "template",
		"main.lpak":                 "pack",
		"de.lcat":                   "german",
		"en.lcat":                   "english",
		"mo/de/LC_MESSAGES/main.mo": "german mo",
	}
	for p, content := range want {
		got, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(p)))
		require.NoError(t, err, "Output %s should exist", p)
		require.Equal(t, content, string(got), "Unexpected content for %s", p)
	}

	var outputs []string
	for _, o := range m.Outputs {
		outputs = append(outputs, o.Path)
		require.Len(t, o.SHA256, 64, "Outputs should be hashed")
	}
	require.Equal(t, []string{"de.lcat", "en.lcat", "main.lpak", "main.pot", "mo/de/LC_MESSAGES/main.mo"}, outputs, "Outputs should be sorted")

	var inputs []string
	for _, i := range m.Inputs {
		inputs = append(inputs, i.Path)
	}
	require.Equal(t, []string{"po/de.po", "src/a.go", "src/b.go"}, inputs, "Inputs should be relative to the root and sorted")
	require.Equal(t, []output.Skip{{Locale: "it", Reason: "broken catalog"}}, m.Skipped, "Skipped locales should be recorded")

	wantManifest := testutils.LoadWithUpdateFromGoldenYAML(t, *m)
	require.Equal(t, wantManifest, *m, "Manifest should match the golden file")

	loaded, err := output.LoadManifest(s.ManifestPath())
	require.NoError(t, err, "Manifest should be readable")
	require.Equal(t, m, loaded, "Manifest on disk should match the returned one")
}

func TestWriteErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		breakPath string
	}{
		"Error when a source cannot be hashed":      {breakPath: "src/a.go"},
		"Error when the output dir is not writable": {breakPath: "build/main"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newSet(t)
			path := filepath.Join(s.Root, filepath.FromSlash(tc.breakPath))
			if tc.breakPath == "build/main" {
				testutils.WriteFiles(t, s.Root, map[string]string{"build/main": "not a directory"})
			} else {
				testutils.ReplaceFileWithDir(t, path, "Setup: could not replace %s with a directory", path)
			}

			_, err := output.Write(context.Background(), s, &pipeline.Result{POT: []byte("template"), Pack: []byte("pack")})
			require.Error(t, err, "Write should fail")
		})
	}
}

func TestWriteKeepsUnchangedFiles(t *testing.T) {
	t.Parallel()

	s := newSet(t)
	res := &pipeline.Result{POT: []byte("template"), Pack: []byte("pack"), Catalogs: map[string][]byte{"en": []byte("english")}}

	_, err := output.Write(context.Background(), s, res)
	require.NoError(t, err, "First write should not fail")

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range []string{s.TemplatePath(), s.PackPath()} {
		require.NoError(t, os.Chtimes(p, past, past), "Setup: could not age %s", p)
	}

	res.Pack = []byte("new pack")
	_, err = output.Write(context.Background(), s, res)
	require.NoError(t, err, "Second write should not fail")

	info, err := os.Stat(s.TemplatePath())
	require.NoError(t, err, "Template should exist")
	require.True(t, past.Equal(info.ModTime()), "Unchanged template should not be rewritten")

	info, err = os.Stat(s.PackPath())
	require.NoError(t, err, "Pack should exist")
	require.False(t, past.Equal(info.ModTime()), "Changed pack should be rewritten")

	_, err = os.Stat(s.PackPath() + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist, "Temporary file should not be left behind")
}

func TestWritePrunesStaleOutputs(t *testing.T) {
	t.Parallel()

	s := newSet(t)
	res := &pipeline.Result{
		POT:      []byte("template"),
		Pack:     []byte("pack"),
		Catalogs: map[string][]byte{"de": []byte("german"), "en": []byte("english")},
	}
	_, err := output.Write(context.Background(), s, res)
	require.NoError(t, err, "First write should not fail")

	delete(res.Catalogs, "de")
	_, err = output.Write(context.Background(), s, res)
	require.NoError(t, err, "Second write should not fail")

	_, err = os.Stat(s.CatalogPath("de"))
	require.ErrorIs(t, err, os.ErrNotExist, "Catalog of a locale no longer compiled should be removed")
	require.FileExists(t, s.CatalogPath("en"), "Catalog of a compiled locale should be kept")
}

func TestUpToDate(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		noWrite        bool
		changeSource   bool
		changeSettings bool
		removeOutput   bool
		corruptOutput  bool

		want bool
	}{
		"Up to date after a write": {want: true},

		"Not up to date without a manifest":        {noWrite: true},
		"Not up to date when a source changed":     {changeSource: true},
		"Not up to date when settings changed":     {changeSettings: true},
		"Not up to date when an output is missing": {removeOutput: true},
		"Not up to date when an output changed":    {corruptOutput: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newSet(t)
			res := &pipeline.Result{POT: []byte("template"), Pack: []byte("pack"), Catalogs: map[string][]byte{"en": []byte("english")}}
			if !tc.noWrite {
				_, err := output.Write(context.Background(), s, res)
				require.NoError(t, err, "Setup: Write should not fail")
			}

			if tc.changeSource {
				require.NoError(t, os.WriteFile(s.Sources[0], []byte("changed"), 0600), "Setup: could not change source")
			}
			if tc.changeSettings {
				s.Settings = "keep-fuzzy=true"
			}
			if tc.removeOutput {
				require.NoError(t, os.Remove(s.PackPath()), "Setup: could not remove pack")
			}
			if tc.corruptOutput {
				require.NoError(t, os.WriteFile(s.PackPath(), []byte("corrupted"), 0600), "Setup: could not change pack")
			}

			got, err := output.UpToDate(s)
			require.NoError(t, err, "UpToDate should not fail")
			require.Equal(t, tc.want, got, "Unexpected UpToDate result")
		})
	}
}

func TestLoadManifestErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"manifest.yaml": "outputs: [[["})

	_, err := output.LoadManifest(filepath.Join(dir, "manifest.yaml"))
	require.Error(t, err, "LoadManifest should fail on invalid YAML")

	_, err = output.LoadManifest(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist, "LoadManifest should report missing manifests")
}

func newSet(t *testing.T) output.Set {
	t.Helper()

	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{
		"src/b.go": `tr("b")`,
		"src/a.go": `tr("a")`,
	})

	return output.Set{
		Dir:     filepath.Join(root, "build", "main"),
		Name:    "main",
		Base:    "en",
		Root:    root,
		Sources: []string{filepath.Join(root, "src", "b.go"), filepath.Join(root, "src", "a.go")},
		Catalogs: []acquire.Result{
			{Locale: "de", Path: filepath.Join(root, "po", "de.po"), Data: []byte("msgid \"\"\nmsgstr \"\"\n")},
			{Locale: "pt", Err: errors.New("not downloaded")},
		},
		Settings: "keep-fuzzy=false",
	}
}
