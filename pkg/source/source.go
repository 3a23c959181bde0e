// pkg/source/source.go

package source

import (
	"context"

	"AveList/pkg/chunk"
	"AveList/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("avelist")

var (
	// ErrNetwork is a transport failure or a non-2xx response.
	ErrNetwork = errors.New("network error")
	// ErrProtocol is a response of unexpected shape, including success:false.
	ErrProtocol = errors.New("protocol error")
	// ErrCancelled means the fetch was aborted through its context.
	ErrCancelled = errors.New("fetch cancelled")
)

// Source resolves a chunk span to its items, in order.
// The returned slice may be shorter than the span at the tail of the dataset.
type Source interface {
	FetchChunk(ctx context.Context, span chunk.Span) ([]chunk.Item, error)
}

// Counter is implemented by sources that know the size of the dataset.
type Counter interface {
	Total(ctx context.Context) (int, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, span chunk.Span) ([]chunk.Item, error)

func (f Func) FetchChunk(ctx context.Context, span chunk.Span) ([]chunk.Item, error) {
	return f(ctx, span)
}

// IsCancelled reports whether err comes from an aborted fetch.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// cancelled wraps the error of a fetch whose context is done.
func cancelled(ctx context.Context, span chunk.Span) error {
	return errors.Wrapf(ErrCancelled, "chunk %s: %s", span, ctx.Err())
}
