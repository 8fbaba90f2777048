// Package clipboard copies finished snapshots to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var errEmptySnapshot = errors.New("clipboard: snapshot is empty")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service copies snapshots through github.com/atotto/clipboard.
type Service struct {
	writeAll func(text string) error
}

// NewService constructs a clipboard service backed by the platform clipboard utility.
func NewService() *Service {
	return &Service{writeAll: clipboard.WriteAll}
}

// Copy places the snapshot text on the clipboard. Empty snapshots are rejected.
func (service *Service) Copy(text string) error {
	if text == "" {
		return errEmptySnapshot
	}
	writeAll := service.writeAll
	if writeAll == nil {
		writeAll = clipboard.WriteAll
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("copy snapshot to clipboard: %w", err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
