package utils

import (
	"fmt"
	"strings"
)

// fileSizeUnits are the suffixes applied at successive 1024 steps.
var fileSizeUnits = [...]string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize renders a byte count as a compact lower-case size string such
// as "512b", "1.5kb", or "2mb". Scaled values below ten keep one fractional
// digit; negative counts clamp to zero.
func FormatFileSize(sizeBytes int64) string {
	if sizeBytes < 0 {
		sizeBytes = 0
	}

	scaled := float64(sizeBytes)
	unitIndex := 0
	for scaled >= 1024 && unitIndex < len(fileSizeUnits)-1 {
		scaled /= 1024
		unitIndex++
	}

	if unitIndex == 0 {
		return fmt.Sprintf("%d%s", sizeBytes, fileSizeUnits[0])
	}
	if scaled < 10 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", scaled), ".0") + fileSizeUnits[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", scaled, fileSizeUnits[unitIndex])
}
