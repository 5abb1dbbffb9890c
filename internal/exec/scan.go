package exec

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
)

// scan returns the candidates for which match holds. Large candidate sets
// are split into chunks evaluated by up to ScanWorkers goroutines.
func (e *Executor[T]) scan(ctx context.Context, candidates *roaring.Bitmap, match func(*T) bool) (*roaring.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	positions := candidates.ToArray()
	chunk := e.cfg.ScanChunkSize

	if e.cfg.ScanWorkers <= 1 || len(positions) <= chunk {
		return e.scanChunk(ctx, positions, match)
	}

	parts := make([]*roaring.Bitmap, (len(positions)+chunk-1)/chunk)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ScanWorkers)

	for i := range parts {
		lo := i * chunk
		hi := min(lo+chunk, len(positions))
		g.Go(func() error {
			bm, err := e.scanChunk(gctx, positions[lo:hi], match)
			if err != nil {
				return err
			}
			parts[i] = bm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return roaring.FastOr(parts...), nil
}

// ctxCheckInterval is how many records are matched between context checks.
const ctxCheckInterval = 1024

func (e *Executor[T]) scanChunk(ctx context.Context, positions []uint32, match func(*T) bool) (*roaring.Bitmap, error) {
	out := roaring.New()
	for i, pos := range positions {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec := e.store.Ref(pos)
		if rec != nil && match(rec) {
			out.Add(pos)
		}
	}
	return out, nil
}
