package dictionary

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format represents the different dictionary file formats
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON           // dict.json as bundled with the web IME
	FormatMsgpack        // compact msgpack array
	FormatText           // tab separated text
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      Format
	Name        string
	Description string
	Extensions  []string
}

var supportedFormats = map[Format]FormatInfo{
	FormatJSON: {
		Format:      FormatJSON,
		Name:        "json",
		Description: "JSON Dictionary",
		Extensions:  []string{".json"},
	},
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Name:        "msgpack",
		Description: "MessagePack Dictionary",
		Extensions:  []string{".msgpack", ".mpk"},
	},
	FormatText: {
		Format:      FormatText,
		Name:        "text",
		Description: "Tab Separated Text Dictionary",
		Extensions:  []string{".txt", ".tsv"},
	},
}

func (f Format) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Name
	}
	return "unknown"
}

// DetectFormat picks the format from the file extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		for _, e := range info.Extensions {
			if e == ext {
				return format, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("unable to detect dictionary format for %s", filename)
}

// ParseFormat resolves a format name from config ("json", "msgpack", "text").
// An empty name yields FormatUnknown, meaning detect from the extension.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		return FormatUnknown, nil
	}
	for format, info := range supportedFormats {
		if info.Name == name {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown dictionary format %q", name)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}
