// Package batch discovers input files, drives the extraction pipeline
// over them and writes the resulting records to the configured outputs.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/orderlens/orderlens/internal/candidate"
)

// Discover resolves the given files and directories into the sorted
// list of image files to process. Directories are walked; recursion is
// controlled by the recursive flag. Include and exclude glob patterns
// match against base names, excludes win.
func Discover(args []string, recursive bool, include, exclude []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, recursive, include, exclude)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if shouldIncludeFile(arg, include, exclude) {
			files = append(files, arg)
		}
	}

	sort.Strings(files)
	return files, nil
}

func discoverInDirectory(dir string, recursive bool, include, exclude []string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldIncludeFile(path, include, exclude) {
			files = append(files, path)
		}

		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// shouldIncludeFile applies the extension filter and the include and
// exclude patterns.
func shouldIncludeFile(path string, include, exclude []string) bool {
	if !candidate.IsSupportedImage(path) {
		return false
	}
	if matchesAnyPattern(path, exclude) {
		return false
	}
	if len(include) == 0 {
		return true
	}
	return matchesAnyPattern(path, include)
}

func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
