package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/dirsnap/internal/commands"
	"github.com/temirov/dirsnap/internal/config"
	"github.com/temirov/dirsnap/internal/output"
	"github.com/temirov/dirsnap/internal/services/clipboard"
	"github.com/temirov/dirsnap/internal/services/watch"
	"github.com/temirov/dirsnap/internal/tokenizer"
	"github.com/temirov/dirsnap/internal/types"
	"github.com/temirov/dirsnap/internal/utils"
)

const (
	loadingPatternsMessage  = "Loading .gitignore patterns..."
	loadedPatternsFormat    = "Loaded %d total ignore pattern(s)."
	generatingTreeMessage   = "Generating ASCII tree (skipping ignored items)..."
	generatedTreeFormat     = "Generated %d lines of structure."
	gatheringFilesMessage   = "Gathering file list (skipping ignored items)..."
	foundFilesFormat        = "Found %d files to include."
	writingResultsFormat    = "Writing results to '%s'..."
	doneFormat              = "Done! Output written to '%s'."
	copiedToClipboardText   = "Snapshot copied to clipboard."
	warningClipboardMessage = "failed to copy snapshot to clipboard"

	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	// errorInputMissingFormat reports a missing input folder.
	errorInputMissingFormat = "input folder does not exist: %s"
	// errorInputNotDirectoryFormat reports an input path that is not a folder.
	errorInputNotDirectoryFormat = "input path is not a directory: %s"
	errorStatFormat              = "stat failed for '%s': %w"
	errorWriteOutputFormat       = "failed to write output file '%s': %w"
)

// snapshotJob produces one snapshot document per run.
type snapshotJob struct {
	inputPath    string
	outputPath   string
	settings     snapshotSettings
	logger       *zap.Logger
	copier       clipboard.Copier
	stdout       io.Writer
	tokenCounter tokenizer.Counter
	tokenModel   string
	// walker is replaced by every run; watch mode filters events through the latest one.
	walker *commands.Walker
}

// runSnapshot validates the arguments, writes the snapshot and optionally keeps
// regenerating it until ctx is cancelled.
func runSnapshot(ctx context.Context, dependencies applicationDependencies, inputArgument string, outputArgument string, settings snapshotSettings) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, loggerError := dependencies.newLogger(settings.quiet)
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	defer func() { _ = logger.Sync() }()

	inputPath, inputError := resolveInputDirectory(inputArgument)
	if inputError != nil {
		return inputError
	}
	outputPath, outputError := resolveOutputPath(outputArgument)
	if outputError != nil {
		return outputError
	}

	job := &snapshotJob{
		inputPath:  inputPath,
		outputPath: outputPath,
		settings:   settings,
		logger:     logger,
		copier:     dependencies.copier,
		stdout:     dependencies.stdout,
	}
	if settings.tokensEnabled {
		counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: settings.tokenModel})
		if counterError != nil {
			return counterError
		}
		job.tokenCounter = counter
		job.tokenModel = resolvedModel
	}

	if runError := job.run(ctx); runError != nil {
		return runError
	}
	if !settings.watchEnabled {
		return nil
	}
	return job.watch(ctx)
}

// resolveInputDirectory converts the input folder to an absolute path and checks that it is a directory.
func resolveInputDirectory(inputArgument string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(inputArgument)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, inputArgument, absoluteError)
	}
	cleanPath := filepath.Clean(absolutePath)
	info, statError := os.Stat(cleanPath)
	if statError != nil {
		if errors.Is(statError, os.ErrNotExist) {
			return "", fmt.Errorf(errorInputMissingFormat, cleanPath)
		}
		return "", fmt.Errorf(errorStatFormat, cleanPath, statError)
	}
	if !info.IsDir() {
		return "", fmt.Errorf(errorInputNotDirectoryFormat, cleanPath)
	}
	return cleanPath, nil
}

func resolveOutputPath(outputArgument string) (string, error) {
	if outputArgument == utils.StandardStreamPath {
		return outputArgument, nil
	}
	absolutePath, absoluteError := filepath.Abs(outputArgument)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, outputArgument, absoluteError)
	}
	return filepath.Clean(absolutePath), nil
}

// prepareWalker loads the ignore patterns and returns a walker for the input folder.
func (job *snapshotJob) prepareWalker() (*commands.Walker, error) {
	job.logger.Info(loadingPatternsMessage)
	matcher, warnings, matcherError := config.BuildMatcher(config.MatcherOptions{
		RootDirectory:     job.inputPath,
		UseGitignore:      job.settings.useGitignore,
		DefaultIgnores:    job.settings.defaultIgnores,
		ExclusionPatterns: job.settings.exclusionPatterns,
	})
	if matcherError != nil {
		return nil, matcherError
	}
	for _, warning := range warnings {
		job.logger.Warn(warning)
	}
	job.logger.Info(fmt.Sprintf(loadedPatternsFormat, matcher.Len()))

	return commands.NewWalker(commands.WalkerOptions{
		Root:       job.inputPath,
		OutputPath: job.outputPath,
		Matcher:    matcher,
		SkipNames:  job.settings.skipDirectories,
		Logger:     job.logger,
	})
}

// run writes one complete snapshot.
func (job *snapshotJob) run(ctx context.Context) error {
	walker, walkerError := job.prepareWalker()
	if walkerError != nil {
		return walkerError
	}
	job.walker = walker

	job.logger.Info(generatingTreeMessage)
	treeNodes, treeError := walker.BuildTree(ctx)
	if treeError != nil {
		return treeError
	}
	treeLines := output.RenderTreeLines(treeNodes)
	job.logger.Info(fmt.Sprintf(generatedTreeFormat, len(treeLines)))

	job.logger.Info(gatheringFilesMessage)
	files, gatherError := walker.GatherFiles(ctx)
	if gatherError != nil {
		return gatherError
	}
	job.logger.Info(fmt.Sprintf(foundFilesFormat, len(files)))

	job.logger.Info(fmt.Sprintf(writingResultsFormat, job.outputPath))
	summary, writeError := job.write(ctx, treeLines, files)
	if writeError != nil {
		return writeError
	}
	job.logger.Info(fmt.Sprintf(doneFormat, job.outputPath))
	job.logger.Info(output.FormatSummaryLine(&summary))
	return nil
}

// write streams the document into the output file or standard output.
func (job *snapshotJob) write(ctx context.Context, treeLines []string, files []types.FileEntry) (types.OutputSummary, error) {
	var destination io.Writer = job.stdout
	var outputFile *os.File
	if job.outputPath != utils.StandardStreamPath {
		// #nosec G304
		createdFile, createError := os.Create(job.outputPath)
		if createError != nil {
			return types.OutputSummary{}, fmt.Errorf(errorWriteOutputFormat, job.outputPath, createError)
		}
		outputFile = createdFile
		destination = createdFile
	}
	if destination == nil {
		destination = io.Discard
	}

	bufferedDestination := bufio.NewWriter(destination)
	var clipboardText *strings.Builder
	var target io.Writer = bufferedDestination
	if job.settings.copyToClipboard {
		clipboardText = &strings.Builder{}
		target = io.MultiWriter(bufferedDestination, clipboardText)
	}

	snapshotWriter := output.NewSnapshotWriter(output.SnapshotOptions{
		Destination:  target,
		Logger:       job.logger,
		TokenCounter: job.tokenCounter,
		TokenModel:   job.tokenModel,
	})
	writeError := snapshotWriter.WriteStructure(job.inputPath, treeLines)
	if writeError == nil {
		producer := func(streamCtx context.Context, contents chan<- types.FileContent) error {
			return commands.StreamContents(streamCtx, files, contents)
		}
		writeError = dispatchStream(ctx, producer, snapshotWriter.Handle)
	}
	if flushError := snapshotWriter.Flush(); writeError == nil {
		writeError = flushError
	}
	if flushError := bufferedDestination.Flush(); writeError == nil {
		writeError = flushError
	}
	if outputFile != nil {
		if closeError := outputFile.Close(); writeError == nil {
			writeError = closeError
		}
	}
	if writeError != nil {
		return types.OutputSummary{}, fmt.Errorf(errorWriteOutputFormat, job.outputPath, writeError)
	}
	if ctxError := ctx.Err(); ctxError != nil {
		return types.OutputSummary{}, ctxError
	}

	if clipboardText != nil && job.copier != nil {
		if copyError := job.copier.Copy(clipboardText.String()); copyError != nil {
			job.logger.Warn(warningClipboardMessage, zap.Error(copyError))
		} else {
			job.logger.Info(copiedToClipboardText)
		}
	}
	return snapshotWriter.Summary(), nil
}

// watch regenerates the snapshot after changes under the input folder.
func (job *snapshotJob) watch(ctx context.Context) error {
	gitIgnorePath := filepath.Join(job.inputPath, utils.GitIgnoreFileName)
	watchedOutput := job.outputPath
	if watchedOutput == utils.StandardStreamPath {
		watchedOutput = ""
	}
	watcher, watcherError := watch.NewWatcher(watch.Options{
		Root:       job.inputPath,
		OutputPath: watchedOutput,
		Debounce:   job.settings.watchDebounce,
		Logger:     job.logger,
		Directories: func(directoriesCtx context.Context) ([]string, error) {
			return job.walker.VisibleDirectories(directoriesCtx)
		},
		IsExcluded: func(absolutePath string) bool {
			if job.settings.useGitignore && utils.SamePath(absolutePath, gitIgnorePath) {
				return false
			}
			return job.walker.IsExcluded(absolutePath)
		},
		Rebuild: job.run,
	})
	if watcherError != nil {
		return watcherError
	}
	return watcher.Run(ctx)
}

// dispatchStream connects one producer and one consumer through an unbuffered
// channel, so contents are consumed in the order they are produced.
func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- types.FileContent) error,
	consume func(types.FileContent) error,
) error {
	group, streamCtx := errgroup.WithContext(ctx)
	contents := make(chan types.FileContent)

	group.Go(func() error {
		defer close(contents)
		return produce(streamCtx, contents)
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case content, ok := <-contents:
				if !ok {
					return nil
				}
				if err := consume(content); err != nil {
					return err
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
