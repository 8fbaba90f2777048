// Package commands contains the core logic for collecting snapshot data.
package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/dirsnap/internal/ignore"
	"github.com/temirov/dirsnap/internal/utils"
)

const (
	errorEmptyRootFormat = "walker root path is empty"

	// warningReadDirectoryMessage is logged when a directory listing fails.
	warningReadDirectoryMessage = "Failed to list directory"
	// warningStatPathMessage is logged when an entry cannot be classified.
	warningStatPathMessage = "Unable to stat path"
)

// WalkerOptions configures a Walker.
type WalkerOptions struct {
	Root       string
	OutputPath string
	Matcher    *ignore.Matcher
	SkipNames  []string
	Logger     *zap.Logger
}

// Walker traverses a project root applying the skip set, the output-file
// exclusion and the ignore matcher to every entry.
type Walker struct {
	root       string
	outputPath string
	matcher    *ignore.Matcher
	skipNames  map[string]struct{}
	logger     *zap.Logger
}

// NewWalker validates options and returns a Walker.
// A nil SkipNames falls back to utils.DefaultSkipDirectories.
func NewWalker(options WalkerOptions) (*Walker, error) {
	if strings.TrimSpace(options.Root) == "" {
		return nil, errors.New(errorEmptyRootFormat)
	}
	absoluteRoot, absoluteError := filepath.Abs(options.Root)
	if absoluteError != nil {
		return nil, absoluteError
	}
	outputPath := options.OutputPath
	if outputPath != "" && outputPath != utils.StandardStreamPath {
		absoluteOutput, outputError := filepath.Abs(outputPath)
		if outputError != nil {
			return nil, outputError
		}
		outputPath = filepath.Clean(absoluteOutput)
	} else {
		outputPath = ""
	}
	skipNames := options.SkipNames
	if skipNames == nil {
		skipNames = utils.DefaultSkipDirectories()
	}
	skipSet := make(map[string]struct{}, len(skipNames))
	for _, skipName := range skipNames {
		trimmedName := strings.TrimSpace(skipName)
		if trimmedName != "" {
			skipSet[trimmedName] = struct{}{}
		}
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		root:       filepath.Clean(absoluteRoot),
		outputPath: outputPath,
		matcher:    options.Matcher,
		skipNames:  skipSet,
		logger:     logger,
	}, nil
}

// Root returns the absolute project root.
func (walker *Walker) Root() string {
	return walker.root
}

// IsExcluded reports whether the entry at absolutePath is hidden from the snapshot.
func (walker *Walker) IsExcluded(absolutePath string) bool {
	if _, skipped := walker.skipNames[filepath.Base(absolutePath)]; skipped {
		return true
	}
	if walker.outputPath != "" && filepath.Clean(absolutePath) == walker.outputPath {
		return true
	}
	relativePath := utils.RelativePathOrSelf(absolutePath, walker.root)
	if relativePath == "." {
		return false
	}
	return walker.matcher.Matches(relativePath)
}

// entryKind classifies a directory entry after following symbolic links.
type entryKind int

const (
	entryOther entryKind = iota
	entryFile
	entryDirectory
)

type visibleEntry struct {
	name         string
	absolutePath string
	relativePath string
	kind         entryKind
	isSymlink    bool
	sizeBytes    int64
}

// listVisibleEntries reads one directory and returns the entries that survive exclusion,
// classified as regular files or directories. Other entry kinds are dropped.
func (walker *Walker) listVisibleEntries(directoryPath string) ([]visibleEntry, error) {
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return nil, readDirectoryError
	}

	visibleEntries := make([]visibleEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		if walker.IsExcluded(childPath) {
			continue
		}
		entryInfo, statError := os.Stat(childPath)
		if statError != nil {
			if !errors.Is(statError, os.ErrNotExist) {
				walker.logger.Warn(warningStatPathMessage, zap.String("path", childPath), zap.Error(statError))
			}
			continue
		}
		entry := visibleEntry{
			name:         directoryEntry.Name(),
			absolutePath: childPath,
			relativePath: utils.RelativePathOrSelf(childPath, walker.root),
			isSymlink:    directoryEntry.Type()&os.ModeSymlink != 0,
		}
		switch {
		case entryInfo.IsDir():
			entry.kind = entryDirectory
		case entryInfo.Mode().IsRegular():
			entry.kind = entryFile
			entry.sizeBytes = entryInfo.Size()
		default:
			entry.kind = entryOther
		}
		if entry.kind == entryOther {
			continue
		}
		visibleEntries = append(visibleEntries, entry)
	}
	return visibleEntries, nil
}
