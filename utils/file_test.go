package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestResolveFile(t *testing.T) {
	_, err := os.Stat(ResolveFile("data/robots/parallel_gripper.xml"))
	test.That(t, err, test.ShouldBeNil)
}

func TestDataPathsResolve(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	test.That(t, os.WriteFile(filepath.Join(second, "a.xml"), []byte("<a/>"), 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(first, "b.xml"), []byte("<b/>"), 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(second, "b.xml"), []byte("<b/>"), 0o600), test.ShouldBeNil)

	dp := DataPaths{first, second}
	p, err := dp.Resolve("a.xml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, filepath.Join(second, "a.xml"))

	// earlier directories win
	p, err = dp.Resolve("b.xml")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, filepath.Join(first, "b.xml"))

	abs := filepath.Join(second, "a.xml")
	p, err = DataPaths(nil).Resolve(abs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, abs)

	_, err = dp.Resolve("c.xml")
	test.That(t, errors.Is(err, ErrDataFileNotFound), test.ShouldBeTrue)
	_, err = dp.Resolve(filepath.Join(first, "c.xml"))
	test.That(t, errors.Is(err, ErrDataFileNotFound), test.ShouldBeTrue)
	_, err = dp.Resolve("")
	test.That(t, errors.Is(err, ErrDataFileNotFound), test.ShouldBeTrue)
}

func TestDataPathsWith(t *testing.T) {
	dp := DataPaths{"a", "b"}.With("b", "", "c")
	test.That(t, dp, test.ShouldResemble, DataPaths{"a", "b", "c"})
}

func TestDataPathsFromEnv(t *testing.T) {
	t.Setenv(DataPathEnvVar, "")
	test.That(t, DataPathsFromEnv(), test.ShouldBeNil)

	t.Setenv(DataPathEnvVar, "x"+string(os.PathListSeparator)+"y"+string(os.PathListSeparator)+"x")
	test.That(t, DataPathsFromEnv(), test.ShouldResemble, DataPaths{"x", "y"})
}
