package ingest

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	apperrors "compliance/pkg/errors"
)

// ResolveFiles expands doublestar patterns (e.g. "minutes/**/*.yaml") into a
// sorted, de-duplicated list of paths. A pattern matching nothing is an error.
func ResolveFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, apperrors.ErrIngestion.WithDetail("message", fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
		if len(matches) == 0 {
			return nil, apperrors.ErrIngestion.WithDetail("message", fmt.Sprintf("pattern %q matched no files", pattern))
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	return paths, nil
}

// LoadFiles resolves patterns and reads each match into an Artifact, in
// pattern order.
func LoadFiles(patterns []string) ([]Artifact, error) {
	paths, err := ResolveFiles(patterns)
	if err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrIngestion.WithDetail("artifact", p))
		}
		artifacts = append(artifacts, Artifact{Name: p, Data: data})
	}
	return artifacts, nil
}
