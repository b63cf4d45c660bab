package project_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/langpack/langpack/internal/acquire"
	"github.com/langpack/langpack/internal/project"
	"github.com/langpack/langpack/internal/testutils"
	"github.com/stretchr/testify/require"
)

const descriptor = `
[package]
name = "hello"
version = "1.2"
bugs-address = "bugs@example.com"
copyright-holder = "Hello authors"

[[source-set]]
name = "main"
sources = ["src"]
extensions = [".go"]
description = "Says hello"

[[source-set]]
name = "plugin"
sources = ["plugin/b.java", "plugin"]
locales = ["de", "pt_BR"]
tx-config = ".tx/config"
tx-resource = "hello.plugin"
github-repo = "hello/hello"
github-revision = "v1.2"
`

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"langpack.toml": descriptor})

	p, err := project.Load(filepath.Join(dir, "langpack.toml"))
	require.NoError(t, err, "Load should not fail")

	want := &project.Project{
		Root: dir,
		Package: project.Package{
			Name:            "hello",
			Version:         "1.2",
			BugsAddress:     "bugs@example.com",
			CopyrightHolder: "Hello authors",
		},
		SourceSets: []project.SourceSet{
			{
				Name:        "main",
				Sources:     []string{"src"},
				Extensions:  []string{".go"},
				PoDir:       filepath.Join("po", "main"),
				Description: "Says hello",
			},
			{
				Name:           "plugin",
				Sources:        []string{"plugin/b.java", "plugin"},
				Extensions:     project.DefaultExtensions,
				PoDir:          filepath.Join("po", "plugin"),
				Locales:        []string{"de", "pt_BR"},
				TxConfig:       ".tx/config",
				TxResource:     "hello.plugin",
				GitHubRepo:     "hello/hello",
				GitHubRevision: "v1.2",
			},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("Load returned an unexpected project (-want +got):\n%s", diff)
	}

	s, ok := p.SourceSet("plugin")
	require.True(t, ok, "Source set plugin should exist")
	require.Equal(t, acquire.TxConfig{Path: filepath.Join(dir, ".tx", "config"), Resource: "hello.plugin"}, p.Source(s), "Plugin catalogs come from Transifex")
	require.NotNil(t, s.Locations(), "Plugin references should be rewritten")

	s, ok = p.SourceSet("main")
	require.True(t, ok, "Source set main should exist")
	require.Equal(t, acquire.Dir{Path: filepath.Join(dir, "po", "main")}, p.Source(s), "Main catalogs come from the po directory")
	require.Nil(t, s.Locations(), "Main references should stay relative")

	_, ok = p.SourceSet("missing")
	require.False(t, ok, "Unknown source sets should not be found")

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m := p.Meta(2024, created)
	require.Equal(t, "hello", m.Package, "Meta should carry the package name")
	require.Equal(t, "Hello authors", m.CopyrightHolder, "Meta should carry the copyright holder")
	require.Equal(t, created, m.Created, "Meta should carry the creation date")
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		content string
		noFile  bool
	}{
		"Error on missing file":  {noFile: true},
		"Error on invalid TOML":  {content: "[package"},
		"Error on unknown field": {content: "[package]\nname = \"a\"\nlicense = \"MIT\"\n[[source-set]]\nname = \"main\"\nsources = [\"src\"]\n"},
		"Error on missing name":  {content: "[[source-set]]\nname = \"main\"\nsources = [\"src\"]\n"},
		"Error on no source set": {content: "[package]\nname = \"a\"\n"},

		"Error on source set without sources":   {content: "[package]\nname = \"a\"\n[[source-set]]\nname = \"main\"\n"},
		"Error on duplicated source sets":       {content: "[package]\nname = \"a\"\n[[source-set]]\nname = \"main\"\nsources = [\"a\"]\n[[source-set]]\nname = \"main\"\nsources = [\"b\"]\n"},
		"Error on source set name with a slash": {content: "[package]\nname = \"a\"\n[[source-set]]\nname = \"a/b\"\nsources = [\"a\"]\n"},
		"Error on invalid expected locale":      {content: "[package]\nname = \"a\"\n[[source-set]]\nname = \"main\"\nsources = [\"a\"]\nlocales = [\"not a locale\"]\n"},
		"Error on repository without revision":  {content: "[package]\nname = \"a\"\n[[source-set]]\nname = \"main\"\nsources = [\"a\"]\ngithub-repo = \"a/b\"\n"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if !tc.noFile {
				testutils.WriteFiles(t, dir, map[string]string{"langpack.toml": tc.content})
			}

			_, err := project.Load(filepath.Join(dir, "langpack.toml"))
			require.Error(t, err, "Load should fail")
		})
	}
}

func TestFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"langpack.toml":        descriptor,
		"src/main.go":          "",
		"src/a/util.go":        "",
		"src/a/util_test.txt":  "",
		"src/.hidden/skip.go":  "",
		"src/z.go":             "",
		"plugin/a.java":        "",
		"plugin/b.java":        "",
		"plugin/res/c.kt":      "",
		"plugin/res/notes.txt": "",
	})

	p, err := project.Load(filepath.Join(dir, "langpack.toml"))
	require.NoError(t, err, "Setup: Load should not fail")

	testCases := map[string]struct {
		sourceSet string
		missing   bool

		want    []string
		wantErr bool
	}{
		"Directories are walked in lexical order":             {sourceSet: "main", want: []string{"src/a/util.go", "src/main.go", "src/z.go"}},
		"Declared files come first and are only listed once": {sourceSet: "plugin", want: []string{"plugin/b.java", "plugin/a.java", "plugin/res/c.kt"}},

		"Error on missing source": {sourceSet: "main", missing: true, wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, ok := p.SourceSet(tc.sourceSet)
			require.True(t, ok, "Setup: source set should exist")
			if tc.missing {
				s.Sources = []string{"src", "does-not-exist"}
			}

			files, err := p.Files(s)
			if tc.wantErr {
				require.Error(t, err, "Files should fail")
				return
			}
			require.NoError(t, err, "Files should not fail")

			var got []string
			for _, f := range files {
				rel, err := filepath.Rel(dir, f)
				require.NoError(t, err, "Files should be under the project root")
				got = append(got, filepath.ToSlash(rel))
			}
			require.Equal(t, tc.want, got, "Unexpected source files")
		})
	}
}
