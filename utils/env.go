package utils

import (
	"os"
	"path/filepath"
)

// DataPathEnvVar is the environment variable holding extra data directories, separated by the
// OS path list separator.
const DataPathEnvVar = "GRASP_DATA_PATH"

// DataPathsFromEnv returns the data directories listed in DataPathEnvVar.
func DataPathsFromEnv() DataPaths {
	v := os.Getenv(DataPathEnvVar)
	if v == "" {
		return nil
	}
	return DataPaths(nil).With(filepath.SplitList(v)...)
}
