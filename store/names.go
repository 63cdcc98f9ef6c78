package store

import (
	"fmt"
	"strings"
)

// Extension returns the text after the last dot of name, or "".
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

func IsPDF(name string) bool {
	return strings.EqualFold(Extension(name), "pdf")
}

func IsImage(name string) bool {
	switch strings.ToLower(Extension(name)) {
	case "jpg", "jpeg", "png", "gif", "bmp":
		return true
	}
	return false
}

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// ReadableSize formats a byte count with one decimal, e.g. "1.5 KB".
func ReadableSize(size int64) string {
	if size <= 0 {
		return "0 B"
	}
	value, group := float64(size), 0
	for value >= 1024 && group < len(sizeUnits)-1 {
		value /= 1024
		group++
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[group])
}
