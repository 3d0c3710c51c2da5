package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// ResolveFile joins fn onto the module root, located from this source file. Tests use it
// to reach fixtures under data/ regardless of the package they run in.
func ResolveFile(fn string) string {
	//nolint:dogsled
	_, thisFilePath, _, _ := runtime.Caller(0)
	thisDirPath, err := filepath.Abs(filepath.Dir(thisFilePath))
	if err != nil {
		panic(err)
	}
	return filepath.Join(thisDirPath, "..", fn)
}

// ErrDataFileNotFound is returned when a data file is found neither as given nor under any
// directory of the data search path.
var ErrDataFileNotFound = errors.New("data file not found")

// DataPaths is an ordered list of directories searched for scene, robot and grasp files.
type DataPaths []string

// Resolve returns an absolute path for name. Absolute paths and paths that exist relative to
// the working directory are returned as is; otherwise each data directory is tried in order.
func (dp DataPaths) Resolve(name string) (string, error) {
	if name == "" {
		return "", errors.Wrap(ErrDataFileNotFound, "empty file name")
	}
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return name, errors.Wrapf(ErrDataFileNotFound, "%q", name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	for _, dir := range dp {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}
	return name, errors.Wrapf(ErrDataFileNotFound, "%q (searched %s)", name, strings.Join(dp, string(os.PathListSeparator)))
}

// With returns a copy of dp with dirs appended, skipping empty entries and duplicates.
func (dp DataPaths) With(dirs ...string) DataPaths {
	out := make(DataPaths, 0, len(dp)+len(dirs))
	seen := map[string]bool{}
	for _, d := range append(append([]string{}, dp...), dirs...) {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
