package skill

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestSuffix is the file name suffix that marks a skill manifest.
const ManifestSuffix = ".skill.yaml"

// Manifest is the parsed form of a *.skill.yaml file. The skill's name comes
// from the manifest's containing folder, not from the manifest itself.
type Manifest struct {
	// Implementation optionally names the bound factory to use. When
	// empty, convention-based resolution applies (folder name).
	Implementation string `yaml:"implementation"`

	// Description is shown when listing skills and in the generic
	// fallback prompt.
	Description string `yaml:"description"`
}

// readManifest parses a manifest file.
func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}
