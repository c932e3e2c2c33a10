package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MeKo-Tech/slipscan/internal/pdf"
	"github.com/MeKo-Tech/slipscan/internal/utils"
)

// isTextFile accepts transcriptions for text-input batches.
func isTextFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// discoverFiles expands args (files or directories) into the sorted list of
// inputs accepted by accept and the include/exclude patterns. Explicit file
// arguments bypass the extension check so unreadable inputs still produce
// an error record.
func discoverFiles(args []string, recursive bool, accept func(string) bool,
	includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, recursive, accept, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if shouldIncludeFile(arg, includePatterns, excludePatterns) {
			files = append(files, arg)
		}
	}

	return files, nil
}

// discoverInDirectory walks dir, descending only when recursive is set.
func discoverInDirectory(dir string, recursive bool, accept func(string) bool,
	includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if accept(path) && shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// acceptFor returns the extension filter for the batch mode.
func acceptFor(cfg *Config) func(string) bool {
	if cfg.TextInput {
		return isTextFile
	}
	return isSlipFile
}

// isSlipFile accepts slip images and PDFs.
func isSlipFile(path string) bool {
	return utils.IsSupportedImage(path) || pdf.IsPDF(path)
}

// shouldIncludeFile determines if a file should be included based on include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern matches the base name against shell patterns, ignoring
// case.
func matchesAnyPattern(path string, patterns []string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(strings.ToLower(pattern), base); matched {
			return true
		}
	}
	return false
}
