package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestNewWatcherValidatesOptions(testingHandle *testing.T) {
	testingHandle.Parallel()

	listDirectories := func(context.Context) ([]string, error) { return nil, nil }
	rebuild := func(context.Context) error { return nil }

	if _, err := NewWatcher(Options{Directories: listDirectories}); err == nil {
		testingHandle.Fatalf("expected error without rebuild callback")
	}
	if _, err := NewWatcher(Options{Rebuild: rebuild}); err == nil {
		testingHandle.Fatalf("expected error without directory lister")
	}
	watcher, err := NewWatcher(Options{Directories: listDirectories, Rebuild: rebuild})
	if err != nil {
		testingHandle.Fatalf("NewWatcher error: %v", err)
	}
	if watcher.options.Debounce != DefaultDebounce {
		testingHandle.Fatalf("expected default debounce, got %v", watcher.options.Debounce)
	}
}

func TestWatcherRelevantEvents(testingHandle *testing.T) {
	testingHandle.Parallel()

	root := testingHandle.TempDir()
	outputPath := filepath.Join(root, "snapshot.txt")
	watcher, err := NewWatcher(Options{
		Root:        root,
		OutputPath:  outputPath,
		Directories: func(context.Context) ([]string, error) { return nil, nil },
		IsExcluded:  func(path string) bool { return strings.HasSuffix(path, ".log") },
		Rebuild:     func(context.Context) error { return nil },
	})
	if err != nil {
		testingHandle.Fatalf("NewWatcher error: %v", err)
	}

	testCases := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{name: "write to source", event: fsnotify.Event{Name: filepath.Join(root, "main.go"), Op: fsnotify.Write}, expected: true},
		{name: "create file", event: fsnotify.Event{Name: filepath.Join(root, "new.go"), Op: fsnotify.Create}, expected: true},
		{name: "remove file", event: fsnotify.Event{Name: filepath.Join(root, "old.go"), Op: fsnotify.Remove}, expected: true},
		{name: "output file", event: fsnotify.Event{Name: outputPath, Op: fsnotify.Write}, expected: false},
		{name: "excluded file", event: fsnotify.Event{Name: filepath.Join(root, "debug.log"), Op: fsnotify.Write}, expected: false},
		{name: "chmod only", event: fsnotify.Event{Name: filepath.Join(root, "main.go"), Op: fsnotify.Chmod}, expected: false},
		{name: "empty name", event: fsnotify.Event{Op: fsnotify.Write}, expected: false},
	}
	for _, testCase := range testCases {
		if actual := watcher.relevant(testCase.event); actual != testCase.expected {
			testingHandle.Errorf("%s: expected %v, got %v", testCase.name, testCase.expected, actual)
		}
	}
}

func waitFor(testingHandle *testing.T, condition func() bool) {
	testingHandle.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	testingHandle.Fatalf("condition not met before deadline")
}

func walkDirectories(root string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		var directories []string
		walkError := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				directories = append(directories, path)
			}
			return nil
		})
		return directories, walkError
	}
}

func startWatcher(testingHandle *testing.T, watcher *Watcher) {
	testingHandle.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	testingHandle.Cleanup(func() {
		cancel()
		if runError := <-done; runError != nil {
			testingHandle.Errorf("Run returned error: %v", runError)
		}
	})
	// the watcher registers its directories asynchronously
	time.Sleep(200 * time.Millisecond)
}

func TestWatcherRebuildsAfterChanges(testingHandle *testing.T) {
	root := testingHandle.TempDir()
	outputPath := filepath.Join(root, "snapshot.txt")

	var rebuilds atomic.Int32
	watcher, err := NewWatcher(Options{
		Root:        root,
		OutputPath:  outputPath,
		Debounce:    50 * time.Millisecond,
		Directories: walkDirectories(root),
		Rebuild: func(context.Context) error {
			rebuilds.Add(1)
			return nil
		},
	})
	if err != nil {
		testingHandle.Fatalf("NewWatcher error: %v", err)
	}
	startWatcher(testingHandle, watcher)

	if err := os.WriteFile(outputPath, []byte("snapshot"), 0o600); err != nil {
		testingHandle.Fatalf("write output: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if rebuilds.Load() != 0 {
		testingHandle.Fatalf("output file change must not trigger a rebuild")
	}

	nestedDirectory := filepath.Join(root, "pkg")
	if err := os.Mkdir(nestedDirectory, 0o755); err != nil {
		testingHandle.Fatalf("mkdir: %v", err)
	}
	waitFor(testingHandle, func() bool { return rebuilds.Load() >= 1 })

	before := rebuilds.Load()
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(nestedDirectory, "a.go"), []byte("package pkg\n"), 0o600); err != nil {
		testingHandle.Fatalf("write nested file: %v", err)
	}
	waitFor(testingHandle, func() bool { return rebuilds.Load() > before })
}

func TestWatcherWatchesNestedDirectoriesCreatedTogether(testingHandle *testing.T) {
	root := testingHandle.TempDir()

	var rebuilds atomic.Int32
	watcher, err := NewWatcher(Options{
		Root:        root,
		Debounce:    50 * time.Millisecond,
		Directories: walkDirectories(root),
		Rebuild: func(context.Context) error {
			rebuilds.Add(1)
			return nil
		},
	})
	if err != nil {
		testingHandle.Fatalf("NewWatcher error: %v", err)
	}
	startWatcher(testingHandle, watcher)

	deepDirectory := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deepDirectory, 0o755); err != nil {
		testingHandle.Fatalf("mkdir: %v", err)
	}
	waitFor(testingHandle, func() bool { return rebuilds.Load() >= 1 })

	before := rebuilds.Load()
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(deepDirectory, "deep.go"), []byte("package c\n"), 0o600); err != nil {
		testingHandle.Fatalf("write deep file: %v", err)
	}
	waitFor(testingHandle, func() bool { return rebuilds.Load() > before })
}

func TestWatcherPicksUpDirectoriesRevealedByRebuild(testingHandle *testing.T) {
	root := testingHandle.TempDir()
	hiddenDirectory := filepath.Join(root, "vendor")
	if err := os.Mkdir(hiddenDirectory, 0o755); err != nil {
		testingHandle.Fatalf("mkdir: %v", err)
	}

	var revealed atomic.Bool
	var rebuilds atomic.Int32
	watcher, err := NewWatcher(Options{
		Root:     root,
		Debounce: 50 * time.Millisecond,
		Directories: func(context.Context) ([]string, error) {
			if revealed.Load() {
				return []string{root, hiddenDirectory}, nil
			}
			return []string{root}, nil
		},
		Rebuild: func(context.Context) error {
			revealed.Store(true)
			rebuilds.Add(1)
			return nil
		},
	})
	if err != nil {
		testingHandle.Fatalf("NewWatcher error: %v", err)
	}
	startWatcher(testingHandle, watcher)

	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# vendor no longer ignored\n"), 0o600); err != nil {
		testingHandle.Fatalf("write ignore file: %v", err)
	}
	waitFor(testingHandle, func() bool { return rebuilds.Load() >= 1 })

	before := rebuilds.Load()
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(hiddenDirectory, "lib.go"), []byte("package vendor\n"), 0o600); err != nil {
		testingHandle.Fatalf("write revealed file: %v", err)
	}
	waitFor(testingHandle, func() bool { return rebuilds.Load() > before })
}

func TestWatcherStopsOnCancel(testingHandle *testing.T) {
	testingHandle.Parallel()

	root := testingHandle.TempDir()
	watcher, err := NewWatcher(Options{
		Root:        root,
		Directories: func(context.Context) ([]string, error) { return []string{root}, nil },
		Rebuild:     func(context.Context) error { return nil },
	})
	if err != nil {
		testingHandle.Fatalf("NewWatcher error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := watcher.Run(ctx); err != nil {
		testingHandle.Fatalf("expected nil on cancellation, got %v", err)
	}
}
