// Package config defines the run configuration of a grasp evaluation and loads it from YAML.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"go.viam.com/grasp/quality"
	"go.viam.com/grasp/robustness"
)

// Output selects where results go besides the console.
type Output struct {
	Viz     bool   `yaml:"viz"`
	Export  string `yaml:"export"`
	Report  string `yaml:"report"`
	PlotDir string `yaml:"plot_dir"`
}

// Config is a complete evaluation run.
type Config struct {
	Scene      string            `yaml:"scene"`
	Robot      string            `yaml:"robot"`
	Grasps     string            `yaml:"grasps"`
	DataPaths  []string          `yaml:"data_paths"`
	FailFast   bool              `yaml:"fail_fast"`
	Quality    quality.Options   `yaml:"quality"`
	Robustness robustness.Config `yaml:"robustness"`
	Output     Output            `yaml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Quality:    quality.DefaultOptions(),
		Robustness: robustness.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected. Relative data paths are
// taken relative to the file's directory.
func Load(path string) (Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config file")
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "parsing config file %s", path)
	}
	dir := filepath.Dir(path)
	for i, p := range cfg.DataPaths {
		if !filepath.IsAbs(p) {
			cfg.DataPaths[i] = filepath.Join(dir, p)
		}
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem with the configuration. The robot may be left empty when the
// scene references one.
func (c Config) Validate() error {
	var err error
	if c.Scene == "" {
		err = multierr.Append(err, errors.New("scene is required"))
	}
	if c.Grasps == "" {
		err = multierr.Append(err, errors.New("grasps is required"))
	}
	if qerr := c.Quality.Validate(); qerr != nil {
		err = multierr.Append(err, errors.Wrap(qerr, "quality"))
	}
	if rerr := c.Robustness.Validate(); rerr != nil {
		err = multierr.Append(err, errors.Wrap(rerr, "robustness"))
	}
	return err
}
