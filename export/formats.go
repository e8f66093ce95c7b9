// Package export writes synthesized story artifacts to disk and reads them
// back, as JSON, YAML, or zstd-compressed variants of either.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatJSON produces indented JSON (.json) output.
	FormatJSON Format = "json"

	// FormatYAML produces YAML (.yaml) output.
	FormatYAML Format = "yaml"
)

// compressedSuffix is appended to the format extension for zstd output.
const compressedSuffix = ".zst"

// IsValid returns true if the format is supported.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "JSON - indented, snake_case keys",
	},
	FormatYAML: {
		Name:        FormatYAML,
		MIMEType:    "application/yaml",
		Extension:   ".yaml",
		Description: "YAML - same keys as JSON",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat parses a format name as given on the command line.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		f = FormatYAML
	}
	if !f.IsValid() {
		return "", fmt.Errorf("unsupported format %q (want json or yaml)", s)
	}
	return f, nil
}

// Extension returns the file extension for format, with the compression
// suffix when compress is set.
func Extension(format Format, compress bool) string {
	ext := FormatRegistry[format].Extension
	if compress {
		ext += compressedSuffix
	}
	return ext
}

// DetectFormat infers the format and compression of an artifact from its
// file name.
func DetectFormat(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, compressedSuffix)
	name = strings.TrimSuffix(name, compressedSuffix)

	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	default:
		return "", false, fmt.Errorf("%w: %s", ErrUnknownExtension, path)
	}
}
