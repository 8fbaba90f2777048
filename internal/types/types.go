// Package types defines every cross-package data structure used by the dirsnap CLI.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
)

// TreeOutputNode is one visible entry of the project tree.
// Directories reached through a symbolic link carry no children.
type TreeOutputNode struct {
	Path         string
	RelativePath string
	Name         string
	Type         string
	IsSymlink    bool
	Children     []*TreeOutputNode
}

// FileEntry is a file selected for the contents section of a snapshot.
type FileEntry struct {
	AbsolutePath string
	RelativePath string
	SizeBytes    int64
}

// FileContent carries the decoded text of one file, or the reason it could not be read.
type FileContent struct {
	Index        int
	Total        int
	RelativePath string
	Content      string
	SizeBytes    int64
	ReadError    error
}

// OutputSummary captures aggregate information about a written snapshot.
type OutputSummary struct {
	TotalFiles  int
	TotalBytes  int64
	TotalSize   string
	TotalTokens int
	Model       string
	UnreadFiles int
	TreeLines   int
}
