package commands

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/dirsnap/internal/types"
	"github.com/temirov/dirsnap/internal/utils"
)

// BuildTree returns the visible children of the project root, recursively.
// Within each directory files come first, with README.md leading and the
// rest ordered by lower-cased name, followed by directories ordered the same
// way. A directory that cannot be listed is logged and rendered empty.
func (walker *Walker) BuildTree(ctx context.Context) ([]*types.TreeOutputNode, error) {
	return walker.buildTreeNodes(ctx, walker.root)
}

func (walker *Walker) buildTreeNodes(ctx context.Context, directoryPath string) ([]*types.TreeOutputNode, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	visibleEntries, listError := walker.listVisibleEntries(directoryPath)
	if listError != nil {
		walker.logger.Warn(warningReadDirectoryMessage, zap.String("path", directoryPath), zap.Error(listError))
		return nil, nil
	}
	sortTreeEntries(visibleEntries)

	nodes := make([]*types.TreeOutputNode, 0, len(visibleEntries))
	for _, entry := range visibleEntries {
		node := &types.TreeOutputNode{
			Path:         entry.absolutePath,
			RelativePath: entry.relativePath,
			Name:         entry.name,
			Type:         types.NodeTypeFile,
			IsSymlink:    entry.isSymlink,
		}
		if entry.kind == entryDirectory {
			node.Type = types.NodeTypeDirectory
			if !entry.isSymlink {
				childNodes, buildError := walker.buildTreeNodes(ctx, entry.absolutePath)
				if buildError != nil {
					return nil, buildError
				}
				node.Children = childNodes
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// sortTreeEntries orders one directory listing for display.
func sortTreeEntries(entries []visibleEntry) {
	sort.SliceStable(entries, func(leftIndex, rightIndex int) bool {
		left, right := entries[leftIndex], entries[rightIndex]
		if left.kind != right.kind {
			return left.kind == entryFile
		}
		if left.kind == entryFile {
			leftIsReadme := left.name == utils.ReadmeFileName
			rightIsReadme := right.name == utils.ReadmeFileName
			if leftIsReadme != rightIsReadme {
				return leftIsReadme
			}
		}
		leftKey, rightKey := strings.ToLower(left.name), strings.ToLower(right.name)
		if leftKey != rightKey {
			return leftKey < rightKey
		}
		return left.name < right.name
	})
}
