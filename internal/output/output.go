// Package output renders dirsnap snapshot documents.
package output

import (
	"fmt"

	"github.com/temirov/dirsnap/internal/types"
)

const (
	structureHeading = "PROJECT STRUCTURE:"
	contentsHeading  = "FILE CONTENTS:"
	sectionRule      = "==================="

	fileHeaderFormat      = "=== PATH: %s ===\n"
	unreadableFileFormat  = "[Could not read file content: %v]\n"
	fileBlockTerminator   = "\n\n"
	readingFileLogFormat  = "[%d/%d] Reading file: %s"
	summaryModelSuffixFmt = " (%s)"

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
)

// RenderTreeLines flattens visible tree nodes into ASCII tree lines.
// The root itself is not part of the result.
func RenderTreeLines(nodes []*types.TreeOutputNode) []string {
	var lines []string
	appendTreeLines(&lines, nodes, "")
	return lines
}

func appendTreeLines(lines *[]string, nodes []*types.TreeOutputNode, prefix string) {
	visible := make([]*types.TreeOutputNode, 0, len(nodes))
	for _, node := range nodes {
		if node != nil {
			visible = append(visible, node)
		}
	}
	for index, node := range visible {
		linePrefix, childPrefix := treeNodeLinePrefix(prefix, index == len(visible)-1)
		*lines = append(*lines, linePrefix+node.Name)
		if node.Type == types.NodeTypeDirectory && len(node.Children) > 0 {
			appendTreeLines(lines, node.Children, childPrefix)
		}
	}
}

func treeNodeLinePrefix(prefix string, isLast bool) (string, string) {
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	return prefix + connector, childPrefix
}

// FormatSummaryLine formats an OutputSummary into the summary line logged after a run.
func FormatSummaryLine(summary *types.OutputSummary) string {
	if summary == nil {
		summary = &types.OutputSummary{}
	}
	label := "files"
	if summary.TotalFiles == 1 {
		label = "file"
	}
	extra := ""
	if summary.TotalTokens > 0 {
		extra = fmt.Sprintf(", %d tokens", summary.TotalTokens)
		if summary.Model != "" {
			extra += fmt.Sprintf(summaryModelSuffixFmt, summary.Model)
		}
	}
	if summary.UnreadFiles > 0 {
		extra += fmt.Sprintf(", %d unreadable", summary.UnreadFiles)
	}
	return fmt.Sprintf("Summary: %d %s, %s%s", summary.TotalFiles, label, summary.TotalSize, extra)
}
