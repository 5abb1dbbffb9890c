package dataset

import (
	"path"
	"strings"
)

// Compression identifies the frame compression of a dataset file.
type Compression uint8

const (
	// CompressionNone reads the file as is.
	CompressionNone Compression = iota
	// CompressionZSTD reads a Zstandard stream.
	CompressionZSTD
	// CompressionLZ4 reads an LZ4 frame stream.
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// Layout identifies how documents are laid out in a file.
type Layout uint8

const (
	// LayoutAuto sniffs the first non-space byte.
	LayoutAuto Layout = iota
	// LayoutArray is a JSON array of objects.
	LayoutArray
	// LayoutLines is one JSON object per line.
	LayoutLines
)

func (l Layout) String() string {
	switch l {
	case LayoutArray:
		return "array"
	case LayoutLines:
		return "lines"
	default:
		return "auto"
	}
}

// Format is the layout and compression of a dataset file.
type Format struct {
	Layout      Layout
	Compression Compression
}

// FormatOf derives the format from a file name.
func FormatOf(name string) Format {
	var f Format

	base := strings.ToLower(path.Base(name))
	switch ext := path.Ext(base); ext {
	case ".zst", ".zstd":
		f.Compression = CompressionZSTD
		base = strings.TrimSuffix(base, ext)
	case ".lz4":
		f.Compression = CompressionLZ4
		base = strings.TrimSuffix(base, ext)
	}

	switch path.Ext(base) {
	case ".json":
		f.Layout = LayoutArray
	case ".jsonl", ".ndjson":
		f.Layout = LayoutLines
	}
	return f
}
