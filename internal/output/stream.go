package output

import (
	"github.com/temirov/dirsnap/internal/types"
)

// ContentRenderer consumes file contents in snapshot order.
type ContentRenderer interface {
	Handle(content types.FileContent) error
	Flush() error
}
