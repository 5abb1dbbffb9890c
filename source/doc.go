// Package source provides read access to dataset files.
//
// Source is the interface for opening named datasets. Implementations must
// be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalSource: local filesystem rooted at a directory
//   - MemorySource: in-memory, for tests
//   - s3.Source: Amazon S3, with parallel ranged downloads for large objects
//   - minio.Source: MinIO and other S3-compatible storage
//
// # Custom Implementations
//
//	type Source interface {
//	    Open(ctx, name) (io.ReadCloser, error)
//	}
package source
