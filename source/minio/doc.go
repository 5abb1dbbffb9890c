// Package minio provides a source.Source for MinIO and other S3-compatible
// object storage.
package minio
