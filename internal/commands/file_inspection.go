package commands

import (
	"context"
	"os"

	"github.com/temirov/dirsnap/internal/types"
	"github.com/temirov/dirsnap/internal/utils"
)

// readFileContent loads and decodes a single file.
//
// #nosec G304
func readFileContent(entry types.FileEntry) types.FileContent {
	content := types.FileContent{
		RelativePath: entry.RelativePath,
		SizeBytes:    entry.SizeBytes,
	}
	fileBytes, readError := os.ReadFile(entry.AbsolutePath)
	if readError != nil {
		content.ReadError = readError
		return content
	}
	content.SizeBytes = int64(len(fileBytes))
	content.Content = utils.DecodeText(fileBytes)
	return content
}

// StreamContents reads files in order and sends one FileContent per file on out.
// It returns early with the context error when ctx is cancelled.
func StreamContents(ctx context.Context, files []types.FileEntry, out chan<- types.FileContent) error {
	totalFiles := len(files)
	for fileIndex, entry := range files {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		content := readFileContent(entry)
		content.Index = fileIndex + 1
		content.Total = totalFiles
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- content:
		}
	}
	return nil
}
