package compiler_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/langpack/langpack/cmd/langpack/compiler"
	"github.com/langpack/langpack/internal/testutils"
	"github.com/stretchr/testify/require"
)

const descriptor = `[package]
name = "hello"
version = "1.0"
copyright-holder = "Hello authors"

[[source-set]]
name = "main"
sources = ["src"]
`

const source = `package main

func main() {
	tr("Hello")
	trc("menu", "Open")
	trn("{0} file", "{0} files", n)
	tr("Only in the base language")
}
`

const german = `# German translations for hello.
# Copyright (C) YEAR THE PACKAGE'S COPYRIGHT HOLDER
msgid ""
msgstr ""
"Project-Id-Version: hello 1.0\n"
"Last-Translator: Jane Doe <jane@example.com>\n"
"Language: de\n"
"Content-Type: text/plain; charset=UTF-8\n"
"Plural-Forms: nplurals=2; plural=(n != 1);\n"

#: src/main.go:4
msgid "Hello"
msgstr "Hallo"

#: src/main.go:5
msgctxt "menu"
msgid "Open"
msgstr "Öffnen"

msgid "{0} file"
msgid_plural "{0} files"
msgstr[0] "{0} Datei"
msgstr[1] "{0} Dateien"

msgid "Removed from the sources"
msgstr "Aus den Quellen entfernt"
`

const french = `msgid ""
msgstr ""
"Language: fr\n"
"Content-Type: text/plain; charset=UTF-8\n"
"Plural-Forms: nplurals=2; plural=(n > 1);\n"

msgid "Hello"
msgstr "Bonjour"

#, fuzzy
msgctxt "menu"
msgid "Open"
msgstr "Ouvrir"

msgid "{0} file"
msgid_plural "{0} files"
msgstr[0] "{0} fichier"
msgstr[1] "{0} fichiers"
`

func TestHelp(t *testing.T) {
	a := compiler.New()
	a.SetArgs("--help")

	getStdout := captureStdout(t)

	err := a.Run()
	require.NoErrorf(t, err, "Run should not return an error with argument --help. Stdout: %v", getStdout())
}

func TestCompletion(t *testing.T) {
	a := compiler.New()
	a.SetArgs("completion", "bash")

	getStdout := captureStdout(t)

	err := a.Run()
	require.NoError(t, err, "Completion should not fail. Stdout: %v", getStdout())
}

func TestVersion(t *testing.T) {
	a := compiler.New()
	a.SetArgs("version")

	getStdout := captureStdout(t)

	err := a.Run()
	require.NoError(t, err, "Run should not return an error")

	out := getStdout()

	fields := strings.Fields(out)
	require.Len(t, fields, 2, "wrong number of fields in version: %s", out)

	require.Equal(t, "langpack", fields[0], "Wrong executable name")
	require.Equal(t, "Dev", fields[1], "Wrong version")
}

func TestNoUsageError(t *testing.T) {
	a := compiler.New()
	a.SetArgs("completion", "bash")

	getStdout := captureStdout(t)
	err := a.Run()

	require.NoError(t, err, "Run should not return an error, stdout: %v", getStdout())
	isUsageError := a.UsageError()
	require.False(t, isUsageError, "No usage error is reported as such")
}

func TestUsageError(t *testing.T) {
	t.Parallel()

	a := compiler.New()
	a.SetOutput(io.Discard)
	a.SetArgs("doesnotexist")

	err := a.Run()
	require.Error(t, err, "Run should return an error")
	isUsageError := a.UsageError()
	require.True(t, isUsageError, "Usage error is reported as such")
}

func TestCanQuitTwice(t *testing.T) {
	t.Parallel()

	a := compiler.New()
	a.Quit()
	a.Quit()
}

func TestAppGetRootCmd(t *testing.T) {
	t.Parallel()

	a := compiler.New()
	require.NotNil(t, a.RootCmd(), "Returns root command")
}

func TestCompile(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		locales           string
		strictAcquisition bool
		orphanPolicy      string
		baseLocale        string

		wantOutputs []string
		wantMissing []string
		wantInOut   []string
		wantErr     bool
	}{
		"Compiles every locale of the catalog directory": {
			wantOutputs: []string{"main.pot", "main.lpak", "manifest.yaml", "de.lcat", "fr.lcat", "en.lcat"},
			wantMissing: []string{"it.lcat"},
			wantInOut:   []string{"main: 4 strings, 3 locales compiled", "main: skipped it"},
		},
		"Skips expected locales without catalog": {
			locales:     `locales = ["de", "ja"]`,
			wantOutputs: []string{"de.lcat", "en.lcat"},
			wantMissing: []string{"fr.lcat", "ja.lcat"},
			wantInOut:   []string{"main: skipped ja"},
		},
		"Skips catalogs with orphan translations when they fail": {
			orphanPolicy: "fail",
			wantOutputs:  []string{"fr.lcat", "en.lcat"},
			wantMissing:  []string{"de.lcat"},
			wantInOut:    []string{"main: skipped de"},
		},

		"Error on expected locale without catalog in strict mode": {locales: `locales = ["de", "ja"]`, strictAcquisition: true, wantErr: true},
		"Error on invalid catalog of the base locale":             {baseLocale: "it", wantErr: true},
		"Error on unknown orphan policy":                          {orphanPolicy: "ignore", wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := newProject(t, tc.locales)

			args := []string{"compile", "--project", filepath.Join(dir, "langpack.toml"), "--year", "2024"}
			if tc.strictAcquisition {
				args = append(args, "--strict-acquisition")
			}
			if tc.orphanPolicy != "" {
				args = append(args, "--orphan-policy", tc.orphanPolicy)
			}
			if tc.baseLocale != "" {
				args = append(args, "--base-locale", tc.baseLocale)
			}

			out, err := runApp(t, args...)
			if tc.wantErr {
				require.Error(t, err, "Compile should fail. Output: %s", out)
				return
			}
			require.NoError(t, err, "Compile should not fail. Output: %s", out)

			for _, f := range tc.wantOutputs {
				require.FileExists(t, filepath.Join(dir, "build", "i18n", "main", f), "Compile should write %s", f)
			}
			for _, f := range tc.wantMissing {
				require.NoFileExists(t, filepath.Join(dir, "build", "i18n", "main", f), "Compile should not write %s", f)
			}
			for _, s := range tc.wantInOut {
				require.Contains(t, out, s, "Compile should report what it did")
			}
		})
	}
}

func TestCompileSkipsUpToDateSourceSets(t *testing.T) {
	t.Parallel()

	dir := newProject(t, "")
	outDir := filepath.Join(t.TempDir(), "artifacts")
	args := []string{"compile", "--project", filepath.Join(dir, "langpack.toml"), "--output", outDir, "--year", "2024", "--emit-mo"}

	out, err := runApp(t, args...)
	require.NoError(t, err, "Setup: first compile should not fail. Output: %s", out)
	require.FileExists(t, filepath.Join(outDir, "main", "mo", "de", "LC_MESSAGES", "main.mo"), "Compile should write MO files when asked to")

	out, err = runApp(t, args...)
	require.NoError(t, err, "Second compile should not fail")
	require.Contains(t, out, "main: up to date", "Unchanged source sets should be skipped")

	out, err = runApp(t, append(args, "--force")...)
	require.NoError(t, err, "Forced compile should not fail")
	require.Contains(t, out, "locales compiled", "Forced compiles should not skip anything")

	testutils.WriteFiles(t, dir, map[string]string{"src/other.go": `tr("Goodbye")`})
	out, err = runApp(t, args...)
	require.NoError(t, err, "Compile after a change should not fail")
	require.Contains(t, out, "main: 5 strings", "New sources should be compiled")

	out, err = runApp(t, append(args[:len(args)-1], "--year", "2025")...)
	require.NoError(t, err, "Compile with other settings should not fail")
	require.Contains(t, out, "locales compiled", "Changing settings should recompile")
}

func TestInspect(t *testing.T) {
	t.Parallel()

	dir := newProject(t, "")
	out, err := runApp(t, "compile", "--project", filepath.Join(dir, "langpack.toml"), "--year", "2024")
	require.NoError(t, err, "Setup: compile should not fail. Output: %s", out)

	outDir := filepath.Join(dir, "build", "i18n", "main")
	pack := filepath.Join(outDir, "main.lpak")

	testCases := map[string]struct {
		args []string

		want    []string
		wantErr bool
	}{
		"Lists the locales of a pack":       {args: []string{pack}, want: []string{"Base locale: en", "Template strings: 4", "de: 3 translated", "fr: 2 translated"}},
		"Lists the messages of a locale":    {args: []string{pack, "--locale", "de"}, want: []string{"Locale: de", `"Hello": Hallo`, `"Open" (context "menu"): Öffnen`}},
		"Lists the messages of a catalog":   {args: []string{filepath.Join(outDir, "fr.lcat")}, want: []string{"Locale: fr", `"{0} file" (plural "{0} files"): {0} fichier | {0} fichiers`}},
		"Looks up a translation":            {args: []string{pack, "--locale", "de", "--key", "Hello"}, want: []string{"de\tHallo"}},
		"Looks up a translation in context": {args: []string{pack, "--locale", "de", "--context", "menu", "--key", "Open"}, want: []string{"de\tÖffnen"}},
		"Falls back to the base locale":     {args: []string{pack, "--locale", "fr", "--context", "menu", "--key", "Open"}, want: []string{"en\tOpen"}},
		"Falls back for unknown locales":    {args: []string{pack, "--locale", "ja", "--key", "Hello"}, want: []string{"en\tHello"}},
		"Selects the plural form":           {args: []string{pack, "--locale", "fr", "--key", "{0} file", "--count", "2"}, want: []string{"fr\t{0} fichiers"}},
		"Looks up a catalog":                {args: []string{filepath.Join(outDir, "de.lcat"), "--key", "{0} file", "--count", "1"}, want: []string{"{0} Datei"}},

		"Error on unknown key":               {args: []string{pack, "--key", "Nope"}, wantErr: true},
		"Error on unknown locale listing":    {args: []string{pack, "--locale", "ja"}, wantErr: true},
		"Error on catalog of another locale": {args: []string{filepath.Join(outDir, "de.lcat"), "--locale", "fr"}, wantErr: true},
		"Error on file of another format":    {args: []string{filepath.Join(outDir, "main.pot")}, wantErr: true},
		"Error on missing file":              {args: []string{filepath.Join(outDir, "missing.lpak")}, wantErr: true},
		"Error on missing argument":          {wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := runApp(t, append([]string{"inspect"}, tc.args...)...)
			if tc.wantErr {
				require.Error(t, err, "Inspect should fail. Output: %s", out)
				return
			}
			require.NoError(t, err, "Inspect should not fail")
			for _, s := range tc.want {
				require.Contains(t, out, s, "Inspect should print the content")
			}
		})
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	dir := newProject(t, "")

	out, err := runApp(t, "stats", "--project", filepath.Join(dir, "langpack.toml"))
	require.NoError(t, err, "Stats should not fail")

	require.Contains(t, out, "Source set main", "Stats should name the source set")
	require.Contains(t, out, "Base language is 'en' with 4 strings", "Stats should print the base locale")
	require.Contains(t, out, "de: 3 strings ( 75.00% translated)", "Stats should print the progress of German")
	require.Contains(t, out, "fr: 2 strings ( 50.00% translated)", "Stats should print the progress of French")
	require.NoDirExists(t, filepath.Join(dir, "build"), "Stats should not write anything")

	_, err = runApp(t, "stats", "--project", filepath.Join(dir, "langpack.toml"), "unknown")
	require.Error(t, err, "Stats should fail on unknown source sets")
}

func TestExtract(t *testing.T) {
	t.Parallel()

	dir := newProject(t, "")

	out, err := runApp(t, "extract", "--project", filepath.Join(dir, "langpack.toml"), "--year", "2024")
	require.NoError(t, err, "Extract should not fail")
	require.Contains(t, out, "main: 4 strings extracted", "Extract should report the number of strings")

	pot, err := os.ReadFile(filepath.Join(dir, "build", "i18n", "main", "main.pot"))
	require.NoError(t, err, "Extract should write the template")
	require.Contains(t, string(pot), `msgid "Only in the base language"`, "Template should contain the extracted strings")
	require.NoFileExists(t, filepath.Join(dir, "build", "i18n", "main", "main.lpak"), "Extract should not compile")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	dir := newProject(t, "")
	project := filepath.Join(dir, "langpack.toml")
	de := filepath.Join(dir, "po", "main", "de.po")
	it := filepath.Join(dir, "po", "main", "it.po")

	testCases := map[string]struct {
		args []string

		want    []string
		wantErr bool
	}{
		"Validates files":                      {args: []string{de, filepath.Join(dir, "po", "main", "fr.po")}, want: []string{"de.po: 4 translations", "fr.po: 2 translations"}},
		"Validates files keeping fuzzy ones":   {args: []string{"--keep-fuzzy", filepath.Join(dir, "po", "main", "fr.po")}, want: []string{"fr.po: 3 translations"}},
		"Validates every catalog of a project": {args: []string{"--project", project, "--orphan-policy", "keep"}, want: []string{"main: de: 4 translations", "main: fr: 2 translations"}, wantErr: true},

		"Error on invalid file":                   {args: []string{de, it}, want: []string{"de.po: 4 translations"}, wantErr: true},
		"Error on missing file":                   {args: []string{filepath.Join(dir, "missing.po")}, wantErr: true},
		"Error on orphan translations of project": {args: []string{"--project", project, "--orphan-policy", "fail"}, wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := runApp(t, append([]string{"validate"}, tc.args...)...)
			if tc.wantErr {
				require.Error(t, err, "Validate should fail. Output: %s", out)
			} else {
				require.NoError(t, err, "Validate should not fail. Output: %s", out)
			}
			for _, s := range tc.want {
				require.Contains(t, out, s, "Validate should report valid catalogs")
			}
		})
	}
}

func TestShorten(t *testing.T) {
	t.Parallel()

	dir := newProject(t, "")
	de := filepath.Join(dir, "po", "main", "de.po")

	out, err := runApp(t, "shorten", "--project", filepath.Join(dir, "langpack.toml"), "--year", "2024")
	require.Error(t, err, "Shorten should report the invalid catalog")
	require.Contains(t, out, "de.po: shortened", "Shorten should rewrite the valid catalogs")

	got, err := os.ReadFile(de)
	require.NoError(t, err, "Shortened catalog should be readable")
	require.NotContains(t, string(got), "#: src/main.go:4", "Source references should be removed")
	require.NotContains(t, string(got), "Jane Doe", "Last translator should be removed")
	require.Contains(t, string(got), "Copyright (C) 2024 Hello authors", "Copyright placeholders should be filled")
	require.Contains(t, string(got), `msgstr "Aus den Quellen entfernt"`, "Translations should be kept")

	out, err = runApp(t, "validate", de)
	require.NoError(t, err, "Shortened catalog should still be valid. Output: %s", out)
}

func TestConfiguration(t *testing.T) {
	dir := newProject(t, "")
	project := filepath.Join(dir, "langpack.toml")

	config := filepath.Join(t.TempDir(), "langpack.yaml")
	testutils.WriteFiles(t, filepath.Dir(config), map[string]string{"langpack.yaml": "orphan-policy: fail\nbase-locale: de\n"})

	a := compiler.New()
	a.SetOutput(io.Discard)
	a.SetArgs("validate", "--config", config, "--project", project)
	err := a.Run()
	require.Error(t, err, "Orphan policy of the configuration file should be used")
	require.Equal(t, "fail", a.Config().OrphanPolicy, "Configuration file should set the orphan policy")
	require.Equal(t, "de", a.Config().BaseLocale, "Configuration file should set the base locale")

	t.Setenv("LANGPACK_KEEP_FUZZY", "true")
	t.Setenv("LANGPACK_JOBS", "2")

	a = compiler.New()
	a.SetOutput(io.Discard)
	a.SetArgs("validate", filepath.Join(dir, "po", "main", "de.po"))
	err = a.Run()
	require.NoError(t, err, "Validate should not fail")
	require.True(t, a.Config().KeepFuzzy, "Environment should enable fuzzy translations")
	require.Equal(t, 2, a.Config().Jobs, "Environment should set the number of jobs")

	a = compiler.New()
	a.SetOutput(io.Discard)
	a.SetArgs("validate", "--config", filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "po", "main", "de.po"))
	err = a.Run()
	require.Error(t, err, "Run should fail on missing configuration file")
}

// newProject creates a project with one source set and its catalogs. The Italian catalog is invalid.
func newProject(t *testing.T, locales string) string {
	t.Helper()

	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"langpack.toml":     descriptor + locales + "\n",
		"src/main.go":       source,
		"po/main/de.po":     german,
		"po/main/fr.po":     french,
		"po/main/it.po":     "this is not a catalog\n",
		"po/main/notes.txt": "ignored",
	})
	return dir
}

// runApp runs a new app with args and returns what it printed.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	a := compiler.New()
	a.SetOutput(&out)
	a.SetArgs(args...)
	err := a.Run()
	return out.String(), err
}

// captureStdout capture current process stdout and returns a function to get the captured buffer.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err, "Setup: pipe shouldn't fail")

	orig := os.Stdout
	os.Stdout = w

	t.Cleanup(func() {
		os.Stdout = orig
		w.Close()
	})

	var out bytes.Buffer
	errch := make(chan error)
	go func() {
		_, err = io.Copy(&out, r)
		errch <- err
		close(errch)
	}()

	return func() string {
		w.Close()
		w = nil
		require.NoError(t, <-errch, "Couldn't copy stdout to buffer")

		return out.String()
	}
}

func TestDocs(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		kind string

		wantFiles []string
		wantErr   bool
	}{
		"Generates completions": {kind: "completion", wantFiles: []string{"bash-completion/completions/langpack", "zsh/site-functions/_langpack"}},
		"Generates man pages":   {kind: "man", wantFiles: []string{"man1/langpack.1", "man1/langpack_compile.1", "man1/langpack_docs.1"}},

		"Error on unknown kind of documentation": {kind: "pdf", wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			_, err := runApp(t, "docs", tc.kind, dir)
			if tc.wantErr {
				require.Error(t, err, "Docs should fail")
				return
			}
			require.NoError(t, err, "Docs should not fail")
			for _, f := range tc.wantFiles {
				require.FileExists(t, filepath.Join(dir, filepath.FromSlash(f)), "Docs should write %s", f)
			}
		})
	}
}

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := newProject(t, "")
	pot := filepath.Join(dir, "build", "i18n", "main", "main.pot")

	a := compiler.New()
	a.SetOutput(io.Discard)
	a.SetArgs("watch", "--project", filepath.Join(dir, "langpack.toml"))

	done := make(chan error)
	go func() { done <- a.Run() }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(pot)
		return err == nil
	}, 10*time.Second, 50*time.Millisecond, "Watch should compile the project when starting")

	testutils.WriteFiles(t, dir, map[string]string{"src/other.go": `tr("Goodbye")`})

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(pot)
		return err == nil && strings.Contains(string(data), "Goodbye")
	}, 10*time.Second, 50*time.Millisecond, "Watch should recompile the project when a source changes")

	a.Quit()
	select {
	case err := <-done:
		require.NoError(t, err, "Watch should stop without error when quitting")
	case <-time.After(10 * time.Second):
		t.Fatal("Watch should stop when quitting")
	}
}
