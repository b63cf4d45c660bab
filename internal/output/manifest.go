package output

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest records the inputs and outputs of the last build of a source set.
type Manifest struct {
	SourceSet string `yaml:"source-set"`
	Base      string `yaml:"base-locale"`
	Settings  string `yaml:"settings,omitempty"`
	Inputs    []File `yaml:"inputs"`
	Outputs   []File `yaml:"outputs"`
	Skipped   []Skip `yaml:"skipped,omitempty"`
}

// File is a path, relative to the source set root for inputs and to the output directory for
// outputs, with the hash of its content.
type File struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// Skip is a locale left out of the pack.
type Skip struct {
	Locale string `yaml:"locale"`
	Reason string `yaml:"reason"`
}

// LoadManifest reads the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("could not parse manifest %s: %v", path, err)
	}
	return &m, nil
}

func (m Manifest) marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("could not serialize manifest: %v", err)
	}
	return data, nil
}

func compareFiles(a, b File) int {
	return strings.Compare(a.Path, b.Path)
}
