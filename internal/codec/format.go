package codec

import (
	"path/filepath"
	"strings"
)

// Format names an interchange format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", ErrUnsupportedFormat
}

// DetectFormat resolves the format from a file name's extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "", ErrUnsupportedFormat
	}
	return ParseFormat(ext)
}

// Extension is the file extension used for downloads, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatYAML:
		return "yaml"
	default:
		return "json"
	}
}

// ContentType is the MIME type used for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Encode renders doc in the given format.
func Encode(f Format, doc Document) ([]byte, error) {
	switch f {
	case FormatJSON:
		return EncodeJSON(doc)
	case FormatMarkdown:
		return EncodeMarkdown(doc), nil
	case FormatYAML:
		return EncodeYAML(doc)
	}
	return nil, ErrUnsupportedFormat
}

// Decode parses data in the given format.
func Decode(f Format, data []byte) (Document, error) {
	switch f {
	case FormatJSON:
		return DecodeJSON(data)
	case FormatMarkdown:
		return DecodeMarkdown(data)
	case FormatYAML:
		return DecodeYAML(data)
	}
	return Document{}, ErrUnsupportedFormat
}
