package schema

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Overrides maps table names to per-table header overrides
// (canonical column key -> exact header text in that upload).
type Overrides struct {
	Codification map[string]string `yaml:"codification"`
	Roster       map[string]string `yaml:"roster"`
	Attendance   map[string]string `yaml:"attendance"`
	Manual       map[string]string `yaml:"manual"`
}

// LoadOverrides reads a YAML schema-override file. An empty path yields an
// empty override set.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	if path == "" {
		return o, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return o, eris.Wrapf(err, "schema: read overrides %s", path)
	}
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return o, eris.Wrapf(err, "schema: parse overrides %s", path)
	}
	return o, nil
}
