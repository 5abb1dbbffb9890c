// Package s3 provides an Amazon S3 implementation of source.Source.
//
// # Usage
//
//	src, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	docs, err := dataset.Load(ctx, src, "words.jsonl.zst")
//
// # Features
//
//   - Existence check with HeadObject before reading
//   - Parallel ranged downloads for objects above the download threshold
//   - Configurable prefix for multi-tenant isolation
package s3
