package imageprocessor

import (
	"path/filepath"
	"sort"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
)

// Map of extensions to format types. Keys are the exact lowercase suffixes
// a candidate file name must end with.
var formatExtensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
}

// HasImageSuffix reports whether name ends in one of the supported
// extensions. Matching is case-sensitive unless ignoreCase is set, so
// "IMG.PNG" is only a candidate with ignoreCase.
func HasImageSuffix(name string, ignoreCase bool) bool {
	if ignoreCase {
		name = strings.ToLower(name)
	}
	for ext := range formatExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	ext := strings.ToLower(filepath.Ext(path))
	format, exists := formatExtensions[ext]
	if !exists {
		return FormatUnknown
	}
	return format
}

// GetSupportedExtensions returns all supported image file extensions, sorted
func GetSupportedExtensions() []string {
	extensions := make([]string, 0, len(formatExtensions))
	for ext := range formatExtensions {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
