// Package config loads ignore files and application configuration.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/dirsnap/internal/ignore"
	"github.com/temirov/dirsnap/internal/utils"
)

const (
	commentPrefix  = "#"
	byteOrderMark  = "\uFEFF"
	maxLineBytes   = 1024 * 1024
	initialBufSize = 64 * 1024

	warningReadIgnoreFileFormat = "failed to read %s file: %v"
	errorEmptyRootDirectory     = "ignore matcher requires a root directory"
)

// LoadIgnoreFilePatterns reads an ignore file and returns its non-empty, non-comment lines.
// A missing file yields no patterns and no error.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if errors.Is(openFileError, os.ErrNotExist) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ignoreFilePath, closeError)
		}
	}()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	scanner.Buffer(make([]byte, initialBufSize), maxLineBytes)
	firstLine := true
	for scanner.Scan() {
		line := scanner.Text()
		if firstLine {
			line = strings.TrimPrefix(line, byteOrderMark)
			firstLine = false
		}
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return ignorePatterns, nil
}

// MatcherOptions controls which sources contribute to an ignore matcher.
type MatcherOptions struct {
	RootDirectory     string
	UseGitignore      bool
	DefaultIgnores    []string
	ExclusionPatterns []string
}

// BuildMatcher composes the root .gitignore, the default ignores and the user exclusions,
// in that order, into a single matcher. An unreadable .gitignore is reported as a warning
// and the remaining sources are still applied.
func BuildMatcher(options MatcherOptions) (*ignore.Matcher, []string, error) {
	if strings.TrimSpace(options.RootDirectory) == "" {
		return nil, nil, errors.New(errorEmptyRootDirectory)
	}

	var warnings []string
	matcher := ignore.NewMatcher()

	if options.UseGitignore {
		gitIgnoreFilePath := filepath.Join(options.RootDirectory, utils.GitIgnoreFileName)
		gitIgnorePatterns, loadError := LoadIgnoreFilePatterns(gitIgnoreFilePath)
		if loadError != nil {
			warnings = append(warnings, fmt.Sprintf(warningReadIgnoreFileFormat, utils.GitIgnoreFileName, loadError))
		} else {
			matcher.Add(gitIgnorePatterns...)
		}
	}

	defaultIgnores := options.DefaultIgnores
	if defaultIgnores == nil {
		defaultIgnores = utils.DefaultIgnorePatterns()
	}
	matcher.Add(defaultIgnores...)

	for _, pattern := range utils.DeduplicatePatterns(options.ExclusionPatterns) {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		matcher.Add(trimmedPattern)
	}

	return matcher, warnings, nil
}
