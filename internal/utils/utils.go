// Package utils contains general helper functions used across the dirsnap tool.
package utils

import (
	"path/filepath"
	"strings"
)

// File and directory names used across the project.
const (
	// GitIgnoreFileName is the name of the Git ignore file read from the project root.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// DesktopServicesStoreFileName is the macOS Finder metadata file.
	DesktopServicesStoreFileName = ".DS_Store"
	// ConfigFileName is the name of the global configuration file.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the name of the configuration file looked up in the working directory.
	LocalConfigFileName = ".dirsnap.yaml"
	// GlobalConfigDirectoryName is the directory under the home directory holding global configuration.
	GlobalConfigDirectoryName = ".dirsnap"
	// ReadmeFileName is always listed first among the files of a directory.
	ReadmeFileName = "README.md"
	// StandardStreamPath selects standard output as the snapshot destination.
	StandardStreamPath = "-"
)

const pathSegmentSeparator = "/"

// DefaultSkipDirectories lists entry names that are never traversed, regardless of ignore rules.
func DefaultSkipDirectories() []string {
	return []string{GitDirectoryName}
}

// DefaultIgnorePatterns lists the patterns ignored in every project.
func DefaultIgnorePatterns() []string {
	return []string{DesktopServicesStoreFileName, GitIgnoreFileName}
}

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the relative path from root to fullPath in forward-slash form.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// NormalizeSeparators converts Windows separators into forward slashes.
func NormalizeSeparators(path string) string {
	return strings.ReplaceAll(path, "\\", pathSegmentSeparator)
}

// SamePath reports whether two paths resolve to the same cleaned absolute location.
func SamePath(first, second string) bool {
	if first == "" || second == "" {
		return false
	}
	firstAbsolute, firstError := filepath.Abs(first)
	if firstError != nil {
		return false
	}
	secondAbsolute, secondError := filepath.Abs(second)
	if secondError != nil {
		return false
	}
	return filepath.Clean(firstAbsolute) == filepath.Clean(secondAbsolute)
}
