// pkg/source/local.go

package source

import (
	"context"

	"AveList/pkg/chunk"
	"AveList/pkg/dataset"

	"github.com/pkg/errors"
)

type local struct {
	ds dataset.Dataset
}

// NewLocal serves chunks straight from a dataset, without a server in between.
func NewLocal(ds dataset.Dataset) Source {
	return &local{ds}
}

func (l *local) String() string {
	return l.ds.Name()
}

func (l *local) FetchChunk(ctx context.Context, span chunk.Span) ([]chunk.Item, error) {
	if ctx.Err() != nil {
		return nil, cancelled(ctx, span)
	}
	p, err := l.ds.Slice(ctx, span.Start, span.Len())
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx, span)
		}
		return nil, errors.Wrapf(ErrNetwork, "chunk %s: %s", span, err)
	}
	return p.Items, nil
}

func (l *local) Total(ctx context.Context) (int, error) {
	return l.ds.Total(ctx)
}
