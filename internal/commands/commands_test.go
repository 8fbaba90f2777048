package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/dirsnap/internal/commands"
	"github.com/temirov/dirsnap/internal/ignore"
	"github.com/temirov/dirsnap/internal/types"
)

const (
	textFileContent = "hello"
	outputFileName  = "snapshot.txt"
)

// writeProjectFile creates a file below root with parent directories.
func writeProjectFile(testingHandle *testing.T, root string, relativePath string, content string) string {
	testingHandle.Helper()
	absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
	if makeDirError := os.MkdirAll(filepath.Dir(absolutePath), 0o755); makeDirError != nil {
		testingHandle.Fatalf("mkdir %s: %v", filepath.Dir(absolutePath), makeDirError)
	}
	if writeError := os.WriteFile(absolutePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("write %s: %v", absolutePath, writeError)
	}
	return absolutePath
}

// newTestWalker builds a walker with the default skip set and the given ignore lines.
func newTestWalker(testingHandle *testing.T, root string, outputPath string, ignoreLines ...string) *commands.Walker {
	testingHandle.Helper()
	walker, walkerError := commands.NewWalker(commands.WalkerOptions{
		Root:       root,
		OutputPath: outputPath,
		Matcher:    ignore.NewMatcher(ignoreLines...),
	})
	if walkerError != nil {
		testingHandle.Fatalf("NewWalker error: %v", walkerError)
	}
	return walker
}

// flattenNames returns "relative/path" for each node in display order.
func flattenNames(nodes []*types.TreeOutputNode) []string {
	var names []string
	for _, node := range nodes {
		names = append(names, node.RelativePath)
		names = append(names, flattenNames(node.Children)...)
	}
	return names
}

// relativePaths extracts the relative paths of gathered files.
func relativePaths(fileEntries []types.FileEntry) []string {
	paths := make([]string, 0, len(fileEntries))
	for _, fileEntry := range fileEntries {
		paths = append(paths, fileEntry.RelativePath)
	}
	return paths
}

// TestBuildTreeOrdering verifies files before directories, README.md first and case-insensitive order.
func TestBuildTreeOrdering(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeProjectFile(testingHandle, rootDirectory, "zeta.txt", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "Alpha.txt", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "README.md", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "beta.md", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "src/main.go", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "src/README.md", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "Docs/guide.md", textFileContent)

	walker := newTestWalker(testingHandle, rootDirectory, "")
	tree, treeError := walker.BuildTree(context.Background())
	if treeError != nil {
		testingHandle.Fatalf("BuildTree error: %v", treeError)
	}

	expectedNames := []string{
		"README.md",
		"Alpha.txt",
		"beta.md",
		"zeta.txt",
		"Docs",
		"Docs/guide.md",
		"src",
		"src/README.md",
		"src/main.go",
	}
	if difference := cmp.Diff(expectedNames, flattenNames(tree)); difference != "" {
		testingHandle.Fatalf("unexpected tree order (-want +got):\n%s", difference)
	}
}

// TestBuildTreeExclusions verifies skip names, ignore patterns and the output file are hidden.
func TestBuildTreeExclusions(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeProjectFile(testingHandle, rootDirectory, ".git/HEAD", "ref: refs/heads/main")
	writeProjectFile(testingHandle, rootDirectory, ".gitignore", "env/\n*.log\n")
	writeProjectFile(testingHandle, rootDirectory, "env/bin/python", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "service/env/config", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "service/app.log", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "service/app.go", textFileContent)
	outputPath := writeProjectFile(testingHandle, rootDirectory, outputFileName, "previous snapshot")

	walker := newTestWalker(testingHandle, rootDirectory, outputPath, "env/", "*.log", ".gitignore")
	tree, treeError := walker.BuildTree(context.Background())
	if treeError != nil {
		testingHandle.Fatalf("BuildTree error: %v", treeError)
	}

	expectedNames := []string{"service", "service/app.go"}
	if difference := cmp.Diff(expectedNames, flattenNames(tree)); difference != "" {
		testingHandle.Fatalf("unexpected tree (-want +got):\n%s", difference)
	}
}

// TestSlashPatternsHideNestedDirectoriesEverywhere verifies that a rule with an inner slash
// is matched against the root-relative path, so tree and contents agree.
func TestSlashPatternsHideNestedDirectoriesEverywhere(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeProjectFile(testingHandle, rootDirectory, "src/main.go", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "src/generated/model.go", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "lib/generated/model.go", textFileContent)

	walker := newTestWalker(testingHandle, rootDirectory, "", "src/generated/")
	tree, treeError := walker.BuildTree(context.Background())
	if treeError != nil {
		testingHandle.Fatalf("BuildTree error: %v", treeError)
	}
	expectedNames := []string{"lib", "lib/generated", "lib/generated/model.go", "src", "src/main.go"}
	if difference := cmp.Diff(expectedNames, flattenNames(tree)); difference != "" {
		testingHandle.Fatalf("unexpected tree (-want +got):\n%s", difference)
	}

	fileEntries, gatherError := walker.GatherFiles(context.Background())
	if gatherError != nil {
		testingHandle.Fatalf("GatherFiles error: %v", gatherError)
	}
	expectedPaths := []string{"lib/generated/model.go", "src/main.go"}
	if difference := cmp.Diff(expectedPaths, relativePaths(fileEntries)); difference != "" {
		testingHandle.Fatalf("unexpected files (-want +got):\n%s", difference)
	}
}

// TestUnlistableDirectoryRendersEmpty verifies that a directory that cannot be read is
// still shown, contributes no files and is reported as a warning.
func TestUnlistableDirectoryRendersEmpty(testingHandle *testing.T) {
	if os.Geteuid() == 0 {
		testingHandle.Skip("permission checks do not apply to root")
	}
	rootDirectory := testingHandle.TempDir()
	writeProjectFile(testingHandle, rootDirectory, "locked/secret.txt", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "open/visible.txt", textFileContent)
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	if chmodError := os.Chmod(lockedDirectory, 0o000); chmodError != nil {
		testingHandle.Fatalf("chmod: %v", chmodError)
	}
	testingHandle.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	core, recorded := observer.New(zapcore.WarnLevel)
	walker, walkerError := commands.NewWalker(commands.WalkerOptions{
		Root:    rootDirectory,
		Matcher: ignore.NewMatcher(),
		Logger:  zap.New(core),
	})
	if walkerError != nil {
		testingHandle.Fatalf("NewWalker error: %v", walkerError)
	}

	tree, treeError := walker.BuildTree(context.Background())
	if treeError != nil {
		testingHandle.Fatalf("BuildTree error: %v", treeError)
	}
	expectedNames := []string{"locked", "open", "open/visible.txt"}
	if difference := cmp.Diff(expectedNames, flattenNames(tree)); difference != "" {
		testingHandle.Fatalf("unexpected tree (-want +got):\n%s", difference)
	}
	if tree[0].Type != types.NodeTypeDirectory || len(tree[0].Children) != 0 {
		testingHandle.Fatalf("expected empty directory node, got %+v", tree[0])
	}

	fileEntries, gatherError := walker.GatherFiles(context.Background())
	if gatherError != nil {
		testingHandle.Fatalf("GatherFiles error: %v", gatherError)
	}
	if difference := cmp.Diff([]string{"open/visible.txt"}, relativePaths(fileEntries)); difference != "" {
		testingHandle.Fatalf("unexpected files (-want +got):\n%s", difference)
	}

	warnings := recorded.FilterMessage("Failed to list directory").All()
	if len(warnings) != 2 {
		testingHandle.Fatalf("expected one warning per traversal, got %d", len(warnings))
	}
	for _, warning := range warnings {
		if warning.ContextMap()["path"] != lockedDirectory {
			testingHandle.Fatalf("unexpected warning path %v", warning.ContextMap()["path"])
		}
	}
}

// TestBuildTreeSymlinkedDirectoryIsLeaf verifies symlinked directories are listed but not descended.
func TestBuildTreeSymlinkedDirectoryIsLeaf(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeProjectFile(testingHandle, rootDirectory, "real/file.txt", textFileContent)
	if symlinkError := os.Symlink(filepath.Join(rootDirectory, "real"), filepath.Join(rootDirectory, "link")); symlinkError != nil {
		testingHandle.Skipf("symlinks unsupported: %v", symlinkError)
	}
	if symlinkError := os.Symlink(filepath.Join(rootDirectory, "missing"), filepath.Join(rootDirectory, "dangling")); symlinkError != nil {
		testingHandle.Skipf("symlinks unsupported: %v", symlinkError)
	}

	walker := newTestWalker(testingHandle, rootDirectory, "")
	tree, treeError := walker.BuildTree(context.Background())
	if treeError != nil {
		testingHandle.Fatalf("BuildTree error: %v", treeError)
	}
	expectedNames := []string{"link", "real", "real/file.txt"}
	if difference := cmp.Diff(expectedNames, flattenNames(tree)); difference != "" {
		testingHandle.Fatalf("unexpected tree (-want +got):\n%s", difference)
	}
	if !tree[0].IsSymlink || tree[0].Type != types.NodeTypeDirectory {
		testingHandle.Fatalf("expected symlinked directory node, got %+v", tree[0])
	}

	fileEntries, gatherError := walker.GatherFiles(context.Background())
	if gatherError != nil {
		testingHandle.Fatalf("GatherFiles error: %v", gatherError)
	}
	if difference := cmp.Diff([]string{"real/file.txt"}, relativePaths(fileEntries)); difference != "" {
		testingHandle.Fatalf("unexpected files (-want +got):\n%s", difference)
	}
}

// TestGatherFilesOrderingAndPruning verifies sorting by lower-cased relative path and ignore pruning.
func TestGatherFilesOrderingAndPruning(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeProjectFile(testingHandle, rootDirectory, "README.md", "# readme")
	writeProjectFile(testingHandle, rootDirectory, "b.txt", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "A/inner.txt", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "a.txt", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "node_modules/pkg/index.js", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, ".DS_Store", "\x00")
	writeProjectFile(testingHandle, rootDirectory, ".git/config", "[core]")
	outputPath := writeProjectFile(testingHandle, rootDirectory, outputFileName, "previous")

	walker := newTestWalker(testingHandle, rootDirectory, outputPath, "node_modules/", ".DS_Store")
	fileEntries, gatherError := walker.GatherFiles(context.Background())
	if gatherError != nil {
		testingHandle.Fatalf("GatherFiles error: %v", gatherError)
	}

	expectedPaths := []string{"a.txt", "A/inner.txt", "b.txt", "README.md"}
	if difference := cmp.Diff(expectedPaths, relativePaths(fileEntries)); difference != "" {
		testingHandle.Fatalf("unexpected files (-want +got):\n%s", difference)
	}
	if fileEntries[0].SizeBytes != int64(len(textFileContent)) {
		testingHandle.Fatalf("expected size %d, got %d", len(textFileContent), fileEntries[0].SizeBytes)
	}
}

// TestStreamContents verifies ordered delivery and read error reporting.
func TestStreamContents(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	firstPath := writeProjectFile(testingHandle, rootDirectory, "first.txt", "one\r\ntwo")
	fileEntries := []types.FileEntry{
		{AbsolutePath: firstPath, RelativePath: "first.txt"},
		{AbsolutePath: filepath.Join(rootDirectory, "vanished.txt"), RelativePath: "vanished.txt"},
	}

	contentChannel := make(chan types.FileContent, len(fileEntries))
	if streamError := commands.StreamContents(context.Background(), fileEntries, contentChannel); streamError != nil {
		testingHandle.Fatalf("StreamContents error: %v", streamError)
	}
	close(contentChannel)

	var received []types.FileContent
	for content := range contentChannel {
		received = append(received, content)
	}
	if len(received) != 2 {
		testingHandle.Fatalf("expected 2 contents, got %d", len(received))
	}
	if received[0].Content != "one\ntwo" || received[0].Index != 1 || received[0].Total != 2 || received[0].ReadError != nil {
		testingHandle.Fatalf("unexpected first content: %+v", received[0])
	}
	if received[1].ReadError == nil || !errors.Is(received[1].ReadError, os.ErrNotExist) {
		testingHandle.Fatalf("expected not-exist read error, got %+v", received[1])
	}
}

// TestStreamContentsStopsOnCancel verifies the producer honours cancellation.
func TestStreamContentsStopsOnCancel(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	filePath := writeProjectFile(testingHandle, rootDirectory, "file.txt", textFileContent)
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	streamError := commands.StreamContents(cancelledContext, []types.FileEntry{{AbsolutePath: filePath, RelativePath: "file.txt"}}, make(chan types.FileContent))
	if !errors.Is(streamError, context.Canceled) {
		testingHandle.Fatalf("expected context.Canceled, got %v", streamError)
	}
}

// TestVisibleDirectories verifies watch targets exclude ignored and skipped directories.
func TestVisibleDirectories(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeProjectFile(testingHandle, rootDirectory, "src/pkg/file.go", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, "build/out.bin", textFileContent)
	writeProjectFile(testingHandle, rootDirectory, ".git/HEAD", textFileContent)

	walker := newTestWalker(testingHandle, rootDirectory, "", "build/")
	directories, collectError := walker.VisibleDirectories(context.Background())
	if collectError != nil {
		testingHandle.Fatalf("VisibleDirectories error: %v", collectError)
	}
	expectedDirectories := []string{
		walker.Root(),
		filepath.Join(walker.Root(), "src"),
		filepath.Join(walker.Root(), "src", "pkg"),
	}
	if difference := cmp.Diff(expectedDirectories, directories); difference != "" {
		testingHandle.Fatalf("unexpected directories (-want +got):\n%s", difference)
	}
}

// TestNewWalkerRequiresRoot verifies validation of the root path.
func TestNewWalkerRequiresRoot(testingHandle *testing.T) {
	if _, walkerError := commands.NewWalker(commands.WalkerOptions{}); walkerError == nil {
		testingHandle.Fatalf("expected error for empty root")
	}
}

// TestIsExcludedStandardOutput verifies "-" never excludes a real file.
func TestIsExcludedStandardOutput(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	dashPath := writeProjectFile(testingHandle, rootDirectory, "-", textFileContent)
	walker := newTestWalker(testingHandle, rootDirectory, "-")
	if walker.IsExcluded(dashPath) {
		testingHandle.Fatalf("expected file named '-' to stay visible when writing to stdout")
	}
}
