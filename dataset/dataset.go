package dataset

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/record"
	"github.com/hupe1980/recgo/source"
)

// MaxLineSize bounds a single line of a line-delimited file.
const MaxLineSize = 16 << 20

// ErrNotObject is returned for array elements or lines that are not JSON objects.
var ErrNotObject = errors.New("dataset: not a JSON object")

// LineError reports a line of a line-delimited file that failed to decode.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("dataset: line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Load opens name from src and decodes it.
func Load(ctx context.Context, src source.Source, name string) ([]record.Document, error) {
	r, err := src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	return DecodeFormat(r, FormatOf(name))
}

// Decode reads documents from r in the format implied by name.
func Decode(r io.Reader, name string) ([]record.Document, error) {
	return DecodeFormat(r, FormatOf(name))
}

// DecodeFormat reads documents from r in format f.
func DecodeFormat(r io.Reader, f Format) ([]record.Document, error) {
	rc, err := decompress(r, f.Compression)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	br := bufio.NewReader(rc)

	layout := f.Layout
	if layout == LayoutAuto {
		layout, err = sniff(br)
		if err != nil {
			return nil, err
		}
	}

	if layout == LayoutArray {
		return decodeArray(br)
	}
	return decodeLines(br)
}

func decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("dataset: zstd: %w", err)
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

func sniff(br *bufio.Reader) (Layout, error) {
	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return LayoutLines, nil
		}
		if err != nil {
			return LayoutAuto, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return LayoutAuto, err
		}
		if b == '[' {
			return LayoutArray, nil
		}
		return LayoutLines, nil
	}
}

func decodeArray(r io.Reader) ([]record.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var docs []record.Document
	if err := codec.Default.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("dataset: element %d: %w", i, ErrNotObject)
		}
	}
	if docs == nil {
		docs = []record.Document{}
	}
	return docs, nil
}

func decodeLines(r io.Reader) ([]record.Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), MaxLineSize)

	docs := []record.Document{}
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		if b[0] != '{' {
			return nil, &LineError{Line: line, Err: ErrNotObject}
		}

		var doc record.Document
		if err := codec.Default.Unmarshal(b, &doc); err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, &LineError{Line: line + 1, Err: err}
	}
	return docs, nil
}
