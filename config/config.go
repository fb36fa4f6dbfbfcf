// Package config - YAML configuration for the anchor debugging tools.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-anchors/anchors"
	"github.com/nvr-ai/go-anchors/matcher"
)

// Dataset describes where training examples come from.
type Dataset struct {
	// Dir holds the images and their .yaml annotations.
	Dir string `json:"dir" yaml:"dir"`
	// Classes maps label ids (the index) to names.
	Classes []string `json:"classes" yaml:"classes"`
	// Width and Height are the training input size; 0 keeps each image's own size.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Render controls the debug overlays.
type Render struct {
	// OutputDir receives one PNG per example.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Level restricts drawing to one feature-map level; -1 draws all levels.
	Level         int     `json:"level" yaml:"level"`
	LineWidth     float64 `json:"line_width" yaml:"line_width"`
	PerObjectHues bool    `json:"per_object_hues" yaml:"per_object_hues"`
	ShowIgnored   bool    `json:"show_ignored" yaml:"show_ignored"`
}

// Config is the full configuration file.
type Config struct {
	Anchors anchors.Config `json:"anchors" yaml:"anchors"`
	Matcher matcher.Config `json:"matcher" yaml:"matcher"`
	Dataset Dataset        `json:"dataset" yaml:"dataset"`
	Render  Render         `json:"render" yaml:"render"`
	// BatchSize is the number of examples loaded per run.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// Workers bounds concurrent assignment; 0 uses every CPU.
	Workers int `json:"workers" yaml:"workers"`
}

// Default returns a configuration for 640x640 inputs with a five-level anchor grid.
func Default() Config {
	return Config{
		Anchors: anchors.DefaultConfig(),
		Matcher: matcher.DefaultConfig(),
		Dataset: Dataset{
			Width:  640,
			Height: 640,
		},
		Render: Render{
			OutputDir:   "out",
			Level:       -1,
			LineWidth:   1,
			ShowIgnored: true,
		},
		BatchSize: 8,
	}
}

// Load reads a YAML file on top of Default and validates the result.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The merged configuration.
//   - error: If the file cannot be read, parsed or validated.
//
// @example
// cfg, err := config.Load("anchors.yaml")
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Anchors.Validate(); err != nil {
		return err
	}
	if err := c.Matcher.Validate(); err != nil {
		return err
	}
	if c.Dataset.Width < 0 || c.Dataset.Height < 0 {
		return errors.Errorf("dataset size %dx%d must not be negative", c.Dataset.Width, c.Dataset.Height)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch size %d must be positive", c.BatchSize)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers %d must not be negative", c.Workers)
	}
	if c.Render.Level < -1 || c.Render.Level >= c.Anchors.Levels() {
		return errors.Errorf("render level %d but only %d anchor levels", c.Render.Level, c.Anchors.Levels())
	}
	return nil
}
