package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/storysynth/story"
)

// ResolveBundles expands paths and glob patterns to bundle files.
// Supports both single-level wildcards (*) and recursive wildcards (**).
//
// Examples:
//   - "stories/flow-030.yaml" → ["/abs/stories/flow-030.yaml"]
//   - "stories/*.json" → every JSON bundle directly under stories
//   - "stories/**/*.yaml" → every YAML bundle below stories
//
// Returned paths are absolute, deduplicated, and in pattern order. Glob
// matches that are not bundle files (by extension) are skipped; a pattern
// that yields nothing is an error.
func ResolveBundles(patterns []string) ([]string, error) {
	var resolved []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		paths, err := resolvePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}

		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				resolved = append(resolved, p)
			}
		}
	}

	return resolved, nil
}

func resolvePattern(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("path is a directory: %s", absPath)
		}
		return []string{absPath}, nil
	}

	absPattern, err := AbsolutePattern(pattern)
	if err != nil {
		return nil, err
	}

	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	sort.Strings(matches)

	var files []string
	for _, match := range matches {
		if !isBundleFile(match) {
			continue
		}
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, match)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no bundle files match pattern: %s", pattern)
	}
	return files, nil
}

// AbsolutePattern converts a relative pattern to absolute, preserving its
// glob characters.
func AbsolutePattern(pattern string) (string, error) {
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	absBase, err := filepath.Abs(filepath.FromSlash(base))
	if err != nil {
		return "", err
	}
	if rest == "" {
		return absBase, nil
	}
	return filepath.Join(absBase, filepath.FromSlash(rest)), nil
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func isBundleFile(path string) bool {
	_, err := story.FormatFromPath(path)
	return err == nil
}
