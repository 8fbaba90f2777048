package commands

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/dirsnap/internal/types"
)

// GatherFiles returns every visible regular file below the project root,
// ordered by lower-cased relative path. Excluded directories are pruned and
// directories reached through symbolic links are not descended.
func (walker *Walker) GatherFiles(ctx context.Context) ([]types.FileEntry, error) {
	var fileEntries []types.FileEntry
	if gatherError := walker.gatherDirectory(ctx, walker.root, &fileEntries); gatherError != nil {
		return nil, gatherError
	}
	sort.SliceStable(fileEntries, func(leftIndex, rightIndex int) bool {
		leftKey := strings.ToLower(fileEntries[leftIndex].RelativePath)
		rightKey := strings.ToLower(fileEntries[rightIndex].RelativePath)
		if leftKey != rightKey {
			return leftKey < rightKey
		}
		return fileEntries[leftIndex].RelativePath < fileEntries[rightIndex].RelativePath
	})
	return fileEntries, nil
}

func (walker *Walker) gatherDirectory(ctx context.Context, directoryPath string, fileEntries *[]types.FileEntry) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	visibleEntries, listError := walker.listVisibleEntries(directoryPath)
	if listError != nil {
		walker.logger.Warn(warningReadDirectoryMessage, zap.String("path", directoryPath), zap.Error(listError))
		return nil
	}

	for _, entry := range visibleEntries {
		switch entry.kind {
		case entryFile:
			*fileEntries = append(*fileEntries, types.FileEntry{
				AbsolutePath: entry.absolutePath,
				RelativePath: entry.relativePath,
				SizeBytes:    entry.sizeBytes,
			})
		case entryDirectory:
			if entry.isSymlink {
				continue
			}
			if gatherError := walker.gatherDirectory(ctx, entry.absolutePath, fileEntries); gatherError != nil {
				return gatherError
			}
		}
	}
	return nil
}

// VisibleDirectories returns the root and every visible, non-symlinked directory below it.
func (walker *Walker) VisibleDirectories(ctx context.Context) ([]string, error) {
	directories := []string{walker.root}
	var collect func(string) error
	collect = func(directoryPath string) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		visibleEntries, listError := walker.listVisibleEntries(directoryPath)
		if listError != nil {
			walker.logger.Warn(warningReadDirectoryMessage, zap.String("path", directoryPath), zap.Error(listError))
			return nil
		}
		for _, entry := range visibleEntries {
			if entry.kind != entryDirectory || entry.isSymlink {
				continue
			}
			directories = append(directories, entry.absolutePath)
			if collectError := collect(entry.absolutePath); collectError != nil {
				return collectError
			}
		}
		return nil
	}
	if collectError := collect(walker.root); collectError != nil {
		return nil, collectError
	}
	return directories, nil
}
