package utils

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	carriageReturnLineFeed = "\r\n"
	carriageReturn         = "\r"
	lineFeed               = "\n"
)

// DecodeText converts raw file bytes into snapshot text.
// Each maximal invalid UTF-8 subsequence becomes a single U+FFFD,
// and Windows or classic Mac line endings are folded into "\n".
func DecodeText(data []byte) string {
	decodedBytes, decodeError := unicode.UTF8.NewDecoder().Bytes(data)
	if decodeError != nil {
		decodedBytes = []byte(strings.ToValidUTF8(string(data), "\uFFFD"))
	}
	decoded := strings.ReplaceAll(string(decodedBytes), carriageReturnLineFeed, lineFeed)
	return strings.ReplaceAll(decoded, carriageReturn, lineFeed)
}
