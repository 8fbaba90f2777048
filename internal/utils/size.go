package utils

import (
	"strconv"
	"strings"
)

const sizeUnitStep = 1024

var sizeUnits = [...]string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize renders a byte count for the snapshot summary line,
// for example "512b", "1.5kb" or "10mb". Negative counts render as "0b".
func FormatFileSize(byteCount int64) string {
	if byteCount < sizeUnitStep {
		if byteCount < 0 {
			byteCount = 0
		}
		return strconv.FormatInt(byteCount, 10) + sizeUnits[0]
	}
	scaled := float64(byteCount)
	unitIndex := 0
	for scaled >= sizeUnitStep && unitIndex < len(sizeUnits)-1 {
		scaled /= sizeUnitStep
		unitIndex++
	}
	precision := 0
	if scaled < 10 {
		precision = 1
	}
	formatted := strings.TrimSuffix(strconv.FormatFloat(scaled, 'f', precision, 64), ".0")
	return formatted + sizeUnits[unitIndex]
}
