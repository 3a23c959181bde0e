// pkg/source/limit.go

package source

import (
	"context"
	"time"

	"AveList/pkg/chunk"

	"github.com/juju/ratelimit"
	"github.com/pkg/errors"
)

type limited struct {
	Source
	bucket *ratelimit.Bucket
}

// NewLimited lets at most rps fetches start per second, with bursts of up to burst.
func NewLimited(s Source, rps float64, burst int64) Source {
	if rps <= 0 {
		return s
	}
	if burst <= 0 {
		burst = 1
	}
	return &limited{s, ratelimit.NewBucketWithRate(rps, burst)}
}

func (l *limited) FetchChunk(ctx context.Context, span chunk.Span) ([]chunk.Item, error) {
	if wait := l.bucket.Take(1); wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			// the token stays taken; the next fetch waits a little longer
			return nil, cancelled(ctx, span)
		}
	}
	return l.Source.FetchChunk(ctx, span)
}

func (l *limited) Total(ctx context.Context) (int, error) {
	if c, ok := l.Source.(Counter); ok {
		return c.Total(ctx)
	}
	return 0, errors.Wrap(ErrProtocol, "source cannot count items")
}
