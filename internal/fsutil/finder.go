// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DiscoverFiles finds audit files under basePath whose names match the glob
// pattern. With recursive set it walks the whole tree; otherwise only the
// immediate directory is considered. A basePath that is itself a regular
// file is returned as-is, pattern notwithstanding. Results are sorted so
// discovery order is stable across runs.
func DiscoverFiles(basePath, pattern string, recursive bool) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	info, err := os.Stat(basePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{basePath}, nil
	}

	var files []string
	err = filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != basePath {
				return filepath.SkipDir
			}
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
