package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/grasp/robustness"
	"go.viam.com/grasp/utils"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Robustness.Samples, test.ShouldEqual, 500)
	test.That(t, cfg.Robustness.MaxPositionDelta, test.ShouldEqual, 10)
	test.That(t, cfg.Robustness.MaxOrientationDelta, test.ShouldEqual, 10)
	test.That(t, cfg.Quality.Friction, test.ShouldEqual, 0.35)
	test.That(t, cfg.Robustness, test.ShouldResemble, robustness.DefaultConfig())

	// scene and grasps are required
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 2)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(utils.ResolveFile("data/config/eval.yaml"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.Scene, test.ShouldEqual, "scenes/single_object_scene.xml")
	test.That(t, cfg.DataPaths, test.ShouldResemble, []string{utils.ResolveFile("data")})
	test.That(t, cfg.Quality.Friction, test.ShouldEqual, 0.5)
	// unset keys keep their defaults
	test.That(t, cfg.Quality.ConeEdges, test.ShouldEqual, 8)
	test.That(t, cfg.Robustness.Samples, test.ShouldEqual, 50)
	test.That(t, cfg.Robustness.MaxOrientationDelta, test.ShouldEqual, 10)
	test.That(t, cfg.Robustness.Distribution, test.ShouldEqual, robustness.DistributionUniform)
	test.That(t, cfg.Output.Report, test.ShouldEqual, "report.json")

	_, err = Load(utils.ResolveFile("data/config/missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParse(t *testing.T) {
	cfg, err := Parse(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, Default())

	_, err = Parse([]byte("scene: a\nsamples: 3\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "samples")

	cfg, err = Parse([]byte("scene: a\ngrasps: c\nrobustness:\n  distribution: cauchy\nquality:\n  cone_edges: 1\n"))
	test.That(t, err, test.ShouldBeNil)
	err = cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 2)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cauchy")
}

func TestLoadDataPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	abs := filepath.Join(t.TempDir(), "shared")
	yml := "scene: s.xml\ngrasps: grasps\ndata_paths:\n  - fixtures\n  - ../common\n  - " + abs + "\n"
	test.That(t, os.WriteFile(path, []byte(yml), 0o600), test.ShouldBeNil)

	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.DataPaths, test.ShouldResemble, []string{
		filepath.Join(dir, "fixtures"),
		filepath.Join(filepath.Dir(dir), "common"),
		abs,
	})
}
