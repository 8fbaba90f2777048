// Package watch regenerates snapshots when files under the project root change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/temirov/dirsnap/internal/utils"
)

// DefaultDebounce is the quiet period used when Options.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
	ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

	errMissingRebuild     = errors.New("watch: rebuild callback is required")
	errMissingDirectories = errors.New("watch: directory lister is required")
)

const (
	watchingMessageFormat   = "Watching %d director(ies) for changes..."
	rebuildingMessageFormat = "Change detected (%s), regenerating snapshot..."
	rebuildFailedMessage    = "snapshot regeneration failed"
	watchAddFailedMessage   = "cannot watch directory"
	watcherErrorMessage     = "filesystem watcher error"
	refreshFailedMessage    = "cannot refresh watched directories"
)

// Options configures a Watcher.
type Options struct {
	Root string
	// OutputPath is the snapshot file; events on it never trigger a rebuild.
	OutputPath string
	Debounce   time.Duration
	Logger     *zap.Logger
	// Directories lists every directory that should be watched.
	Directories func(ctx context.Context) ([]string, error)
	// IsExcluded reports whether a changed path is hidden from the snapshot.
	IsExcluded func(absolutePath string) bool
	// Rebuild regenerates the snapshot.
	Rebuild func(ctx context.Context) error
}

// Watcher calls Rebuild after bursts of relevant filesystem changes.
type Watcher struct {
	options Options
	logger  *zap.Logger
}

// NewWatcher validates options and returns a Watcher.
func NewWatcher(options Options) (*Watcher, error) {
	if options.Rebuild == nil {
		return nil, errMissingRebuild
	}
	if options.Directories == nil {
		return nil, errMissingDirectories
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{options: options, logger: logger}, nil
}

// Run watches until ctx is done. It returns nil on cancellation.
func (watcher *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	defer func() { _ = fsWatcher.Close() }()

	watched := make(map[string]struct{})
	if err := watcher.refresh(ctx, fsWatcher, watched); err != nil {
		return err
	}
	watcher.logger.Info(fmt.Sprintf(watchingMessageFormat, len(watched)))

	debounceTimer := time.NewTimer(watcher.options.Debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()
	pendingPath := ""

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !watcher.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) && isDirectory(event.Name) {
				if refreshError := watcher.refresh(ctx, fsWatcher, watched); refreshError != nil {
					watcher.logger.Warn(refreshFailedMessage, zap.Error(refreshError))
				}
			}
			pendingPath = utils.RelativePathOrSelf(event.Name, watcher.options.Root)
			debounceTimer.Reset(watcher.options.Debounce)
		case watchError, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			watcher.logger.Warn(watcherErrorMessage, zap.Error(watchError))
		case <-debounceTimer.C:
			watcher.logger.Info(fmt.Sprintf(rebuildingMessageFormat, pendingPath))
			if rebuildError := watcher.options.Rebuild(ctx); rebuildError != nil {
				if ctx.Err() != nil {
					return nil
				}
				watcher.logger.Warn(rebuildFailedMessage, zap.Error(rebuildError))
			}
			if refreshError := watcher.refresh(ctx, fsWatcher, watched); refreshError != nil {
				watcher.logger.Warn(refreshFailedMessage, zap.Error(refreshError))
			}
		}
	}
}

// relevant reports whether event may change the snapshot.
func (watcher *Watcher) relevant(event fsnotify.Event) bool {
	if event.Name == "" || event.Op == fsnotify.Chmod {
		return false
	}
	if watcher.options.OutputPath != "" && utils.SamePath(event.Name, watcher.options.OutputPath) {
		return false
	}
	if watcher.options.IsExcluded != nil && watcher.options.IsExcluded(event.Name) {
		return false
	}
	return true
}

// refresh adds every listed directory that is not watched yet.
// Directories that disappeared are dropped by fsnotify on removal.
func (watcher *Watcher) refresh(ctx context.Context, fsWatcher *fsnotify.Watcher, watched map[string]struct{}) error {
	directories, err := watcher.options.Directories(ctx)
	if err != nil {
		return fmt.Errorf("list watched directories: %w", err)
	}
	for _, directory := range directories {
		if _, seen := watched[directory]; seen {
			continue
		}
		if addError := fsWatcher.Add(directory); addError != nil {
			watcher.logger.Warn(watchAddFailedMessage, zap.String("path", directory), zap.Error(addError))
			continue
		}
		watched[directory] = struct{}{}
	}
	for directory := range watched {
		if !isDirectory(directory) {
			delete(watched, directory)
		}
	}
	return nil
}

func isDirectory(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}
