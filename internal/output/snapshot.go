package output

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/dirsnap/internal/tokenizer"
	"github.com/temirov/dirsnap/internal/types"
	"github.com/temirov/dirsnap/internal/utils"
)

const tokenCountFailedMessage = "token counting disabled"

// SnapshotOptions configures a SnapshotWriter.
type SnapshotOptions struct {
	Destination  io.Writer
	Logger       *zap.Logger
	TokenCounter tokenizer.Counter
	TokenModel   string
}

// SnapshotWriter writes a snapshot document: the structure section followed
// by one block per file content it handles. After the first write error every
// further write is skipped and the error is returned from each call.
type SnapshotWriter struct {
	destination  io.Writer
	logger       *zap.Logger
	tokenCounter tokenizer.Counter
	summary      types.OutputSummary
	writeError   error
	// written holds the document for token counting; tokensCounted is reset by every write.
	written       strings.Builder
	tokensCounted bool
}

// NewSnapshotWriter constructs a SnapshotWriter.
func NewSnapshotWriter(options SnapshotOptions) *SnapshotWriter {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := &SnapshotWriter{
		destination:  options.Destination,
		logger:       logger,
		tokenCounter: options.TokenCounter,
	}
	if options.TokenCounter != nil {
		writer.summary.Model = options.TokenModel
	}
	return writer
}

// WriteStructure writes the project structure section and the contents heading.
func (writer *SnapshotWriter) WriteStructure(rootPath string, treeLines []string) error {
	var builder strings.Builder
	builder.WriteString(structureHeading + "\n")
	builder.WriteString(sectionRule + "\n")
	builder.WriteString(rootPath + "\n")
	for _, line := range treeLines {
		builder.WriteString(line + "\n")
	}
	builder.WriteString("\n\n" + contentsHeading + "\n")
	builder.WriteString(sectionRule + "\n")
	writer.summary.TreeLines = len(treeLines)
	return writer.write(builder.String())
}

// Handle writes one file block.
func (writer *SnapshotWriter) Handle(content types.FileContent) error {
	writer.logger.Info(fmt.Sprintf(readingFileLogFormat, content.Index, content.Total, content.RelativePath))
	writer.summary.TotalFiles++
	writer.summary.TotalBytes += content.SizeBytes

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(fileHeaderFormat, content.RelativePath))
	if content.ReadError != nil {
		writer.summary.UnreadFiles++
		writer.logger.Warn("file could not be read", zap.String("path", content.RelativePath), zap.Error(content.ReadError))
		builder.WriteString(fmt.Sprintf(unreadableFileFormat, content.ReadError))
	} else {
		builder.WriteString(content.Content)
	}
	builder.WriteString(fileBlockTerminator)
	return writer.write(builder.String())
}

// Flush flushes a buffered destination and reports the first write error.
func (writer *SnapshotWriter) Flush() error {
	if writer.writeError != nil {
		return writer.writeError
	}
	if flusher, ok := writer.destination.(interface{ Flush() error }); ok {
		if flushError := flusher.Flush(); flushError != nil {
			writer.writeError = flushError
		}
	}
	return writer.writeError
}

// Summary reports aggregate information about everything written so far.
// Tokens are counted on the whole document, so chunk boundaries never split a token.
func (writer *SnapshotWriter) Summary() types.OutputSummary {
	if !writer.tokensCounted {
		writer.countTokens()
	}
	summary := writer.summary
	summary.TotalSize = utils.FormatFileSize(summary.TotalBytes)
	return summary
}

func (writer *SnapshotWriter) write(text string) error {
	if writer.writeError != nil {
		return writer.writeError
	}
	if writer.destination == nil {
		writer.writeError = io.ErrClosedPipe
		return writer.writeError
	}
	if _, err := io.WriteString(writer.destination, text); err != nil {
		writer.writeError = err
		return err
	}
	if writer.tokenCounter != nil {
		writer.written.WriteString(text)
		writer.tokensCounted = false
	}
	return nil
}

func (writer *SnapshotWriter) countTokens() {
	writer.tokensCounted = true
	if writer.tokenCounter == nil {
		return
	}
	result, err := tokenizer.CountText(writer.tokenCounter, writer.written.String())
	if err != nil {
		writer.logger.Warn(tokenCountFailedMessage, zap.Error(err))
		writer.tokenCounter = nil
		writer.written.Reset()
		writer.summary.TotalTokens = 0
		writer.summary.Model = ""
		return
	}
	writer.summary.TotalTokens = result.Tokens
}

var _ ContentRenderer = (*SnapshotWriter)(nil)
