package config

import (
	"os"
	"path/filepath"
)

// File names searched for a config file, in order.
var FileNames = []string{"dysregnet.yaml", "dysregnet.yml"}

// FindFile returns the config file in dir, or "" when there is none.
func FindFile(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
