package ignore

import "strings"

const (
	commentPrefix     = "#"
	segmentSeparator  = "/"
	anyDepthPrefix    = "*/"
	descendantsSuffix = "/*"
)

// ExpandPattern converts a single ignore line into the glob patterns that
// approximate it at every depth. Empty lines and comments expand to nothing.
func ExpandPattern(line string) []string {
	trimmedLine := strings.TrimSpace(line)
	if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
		return nil
	}

	if strings.HasSuffix(trimmedLine, segmentSeparator) {
		directoryName := strings.TrimSuffix(trimmedLine, segmentSeparator)
		if !strings.Contains(directoryName, segmentSeparator) {
			return []string{
				directoryName,
				directoryName + descendantsSuffix,
				anyDepthPrefix + directoryName,
				anyDepthPrefix + directoryName + descendantsSuffix,
			}
		}
		return []string{directoryName, directoryName + descendantsSuffix}
	}

	if !strings.Contains(trimmedLine, segmentSeparator) {
		return []string{anyDepthPrefix + trimmedLine, trimmedLine}
	}
	return []string{trimmedLine}
}
