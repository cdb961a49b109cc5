package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dkfz-unite/unite-analysis-kmeier/cohort"
)

// ConfigFile is the name of the optional per-run configuration file,
// looked up in the run root.
const ConfigFile = "kmeier.yaml"

// Config holds the tunable parameters of a run.  All fields have
// working defaults; a kmeier.yaml in the run root overrides them.
type Config struct {

	// Name of the input table inside the run root.
	Input string `yaml:"input"`

	// Coverage probability of the confidence bands.
	ConfLevel float64 `yaml:"conf_level"`

	// Label assigned to all subjects when the table has no label
	// column.
	DefaultLabel string `yaml:"default_label"`

	// When true, a survival<label>.png step plot is written next to
	// each group's result table.
	Plot bool `yaml:"plot"`
}

// DefaultConfig returns the configuration used when no file or flags
// override it.
func DefaultConfig() Config {
	return Config{
		Input:        "input.tsv",
		ConfLevel:    0.95,
		DefaultLabel: cohort.DefaultLabel,
	}
}

// LoadConfig reads kmeier.yaml from the run root, if present, on top of
// the defaults.
func LoadConfig(root string) (Config, error) {

	cfg := DefaultConfig()

	b, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("pipeline: reading config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("pipeline: parsing %s: %w", ConfigFile, err)
	}

	return cfg, nil
}
