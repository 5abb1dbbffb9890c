package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a dataset does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Source opens datasets by name.
type Source interface {
	// Open opens a dataset for reading. The caller closes the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// LocalSource implements Source using the local file system.
type LocalSource struct {
	root string
}

// NewLocalSource creates a new LocalSource rooted at the given directory.
// An empty root resolves names relative to the working directory.
func NewLocalSource(root string) *LocalSource {
	return &LocalSource{root: root}
}

// Open opens a file for reading.
func (s *LocalSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := name
	if s.root != "" {
		if !filepath.IsLocal(name) {
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrInvalid}
		}
		path = filepath.Join(s.root, name)
	}
	return os.Open(path)
}

// Resolve splits a location such as "s3://bucket/key" into its scheme and
// the remainder. Plain paths have an empty scheme.
func Resolve(location string) (scheme, rest string) {
	if i := strings.Index(location, "://"); i > 0 {
		return location[:i], location[i+3:]
	}
	return "", location
}
