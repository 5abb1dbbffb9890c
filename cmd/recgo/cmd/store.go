package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/record"
	"github.com/hupe1980/recgo/source"
	"github.com/hupe1980/recgo/source/minio"
	"github.com/hupe1980/recgo/source/s3"
)

// errNoDataset is returned when neither --data nor dataset.path is set.
var errNoDataset = errors.New("no dataset: set --data, dataset.path or RECGO_DATA")

// openSource maps a dataset location to a source and the name to open in it.
func (g *globalOptions) openSource(ctx context.Context, location string) (source.Source, string, error) {
	scheme, rest := source.Resolve(location)

	switch scheme {
	case "", "file":
		return source.NewLocalSource(""), rest, nil
	case "s3":
		bucket, key, err := splitBucket(location, rest)
		if err != nil {
			return nil, "", err
		}
		src, err := s3.New(ctx, bucket,
			s3.WithRegion(g.cfg.S3.Region),
			s3.WithEndpoint(g.cfg.S3.Endpoint),
		)
		if err != nil {
			return nil, "", fmt.Errorf("s3: %w", err)
		}
		return src, key, nil
	case "minio":
		bucket, key, err := splitBucket(location, rest)
		if err != nil {
			return nil, "", err
		}
		src, err := minio.Dial(minio.Config{
			Endpoint:  g.cfg.MinIO.Endpoint,
			AccessKey: g.cfg.MinIO.AccessKey,
			SecretKey: g.cfg.MinIO.SecretKey,
			Secure:    g.cfg.MinIO.Secure,
			Bucket:    bucket,
		})
		if err != nil {
			return nil, "", fmt.Errorf("minio: %w", err)
		}
		return src, key, nil
	default:
		return nil, "", fmt.Errorf("unsupported dataset scheme %q", scheme)
	}
}

func splitBucket(location, rest string) (bucket, key string, err error) {
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid dataset location %q: want scheme://bucket/key", location)
	}
	return bucket, key, nil
}

// openStore loads the configured dataset into a new store.
func (g *globalOptions) openStore(ctx context.Context) (*recgo.Store[record.Document], error) {
	cfg := g.cfg
	if cfg.Dataset.Path == "" {
		return nil, errNoDataset
	}

	src, name, err := g.openSource(ctx, cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	docs, err := dataset.Load(ctx, src, name)
	if err != nil {
		return nil, err
	}

	ttl, _ := cfg.CacheTTL()
	slow, _ := cfg.SlowQueryThreshold()

	opts := []recgo.Option{
		recgo.WithIndexedFields(cfg.Dataset.IndexedFields...),
		recgo.WithCacheCapacity(cfg.Cache.Capacity),
		recgo.WithScanParallelism(cfg.Store.ScanWorkers),
		recgo.WithCompactionThreshold(cfg.Store.CompactionThreshold),
		recgo.WithSlowQueryThreshold(slow),
		recgo.WithLogger(g.logger),
	}
	if ttl > 0 {
		opts = append(opts, recgo.WithCacheTTL(ttl))
	}
	if g.collector != nil {
		opts = append(opts, recgo.WithMetricsCollector(g.collector))
	}

	store, err := recgo.New(docs, record.Schema(cfg.Dataset.PrimaryKey), opts...)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("dataset loaded",
		"path", cfg.Dataset.Path,
		"records", store.Len(),
		"duration", time.Since(start),
	)
	if g.collector != nil {
		g.collector.ObserveStats(store.Stats())
	}
	return store, nil
}
