package testutils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// UpdateGoldenFilesEnv is the environment variable which, when set, makes the golden helpers
// overwrite the golden files with the values under test.
const UpdateGoldenFilesEnv = `TESTS_UPDATE_GOLDEN`

var updateGolden = os.Getenv(UpdateGoldenFilesEnv) != ""

// GoldenPath returns testdata/<Test>/golden for a top level test, and
// testdata/<Test>/golden/<subtest> for a subtest.
func GoldenPath(t *testing.T) string {
	t.Helper()

	test, sub, found := strings.Cut(t.Name(), "/")
	path := filepath.Join("testdata", test, "golden")
	if !found {
		return path
	}

	sub = strings.NewReplacer(`\`, "_", ":", "").Replace(sub)
	return filepath.Join(path, strings.ToLower(sub))
}

// LoadWithUpdateFromGolden returns the content of the golden file of t. The file is first
// replaced by got when golden files are being updated.
func LoadWithUpdateFromGolden(t *testing.T, got string) string {
	t.Helper()

	path := GoldenPath(t)
	if updateGolden {
		t.Logf("Updating golden file %s", path)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750), "Cannot create golden file directory")
		require.NoError(t, os.WriteFile(path, []byte(got), 0600), "Cannot write golden file")
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "Cannot load golden file %s", path)

	return string(bytes.ReplaceAll(want, []byte("\r\n"), []byte("\n")))
}

// LoadWithUpdateFromGoldenYAML is LoadWithUpdateFromGolden for values stored as YAML.
func LoadWithUpdateFromGoldenYAML[E any](t *testing.T, got E) E {
	t.Helper()

	data, err := yaml.Marshal(got)
	require.NoError(t, err, "Cannot serialize value for golden file")

	var want E
	err = yaml.Unmarshal([]byte(LoadWithUpdateFromGolden(t, string(data))), &want)
	require.NoError(t, err, "Cannot deserialize golden file")
	return want
}
