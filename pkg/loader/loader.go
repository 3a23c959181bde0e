// pkg/loader/loader.go

// Package loader keeps the chunks around the visible part of a virtualized
// list resident, fetching them on demand from a source.
package loader

import (
	"context"
	"sync"
	"time"

	"AveList/pkg/chunk"
	"AveList/pkg/source"
	"AveList/pkg/utils"

	"go.uber.org/atomic"
)

var logger = utils.GetLogger("avelist")

// Range is an inclusive index range reported by the virtualization engine.
type Range struct {
	Start int
	End   int
}

// Stats are advisory counters for diagnostics.
type Stats struct {
	Resident   int
	InFlight   int
	Items      int64
	Passes     uint64
	Dispatched uint64
	Cancelled  uint64
	Errored    uint64
	Dropped    uint64
}

type Option func(*Loader)

// WithMetrics reports activity to m.
func WithMetrics(m Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithOnResolve calls fn after a chunk is stored, outside of any loader lock.
func WithOnResolve(fn func(*chunk.Chunk)) Option {
	return func(l *Loader) { l.onResolve = fn }
}

// WithStore replaces the in-memory chunk store.
func WithStore(s chunk.Store) Option {
	return func(l *Loader) { l.store = s }
}

// Loader is the consumer facing side: the virtualization engine reports the
// visible range and reads items, the loader fetches what is missing.
type Loader struct {
	conf      Config
	src       source.Source
	store     chunk.Store
	reg       *chunk.Registry
	trigger   *utils.Debouncer[Range]
	metrics   Metrics
	onResolve func(*chunk.Chunk)

	// mu serialises scheduling passes and fetch resolutions.
	mu       sync.Mutex
	idle     *utils.Cond
	closed   bool
	fetching int // fetch goroutines not finished yet, cancelled ones included
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	passes     atomic.Uint64
	dispatched atomic.Uint64
	cancelled  atomic.Uint64
	errored    atomic.Uint64
	dropped    atomic.Uint64
}

// New creates a Loader over src. conf must pass Config.Check.
func New(conf Config, src source.Source, opts ...Option) (*Loader, error) {
	if err := conf.Check(); err != nil {
		return nil, err
	}
	l := &Loader{
		conf: conf,
		src:  src,
		reg:  chunk.NewRegistry(),
	}
	for _, o := range opts {
		o(l)
	}
	if l.store == nil {
		l.store = chunk.NewMemStore(conf.ChunkSize)
	}
	l.idle = utils.NewCond(&l.mu)
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.trigger = utils.NewDebouncer(conf.Debounce, conf.MaxWait, l.schedule)
	return l, nil
}

func (l *Loader) Config() Config {
	return l.conf
}

// NotifyVisibleRange reports the items on screen. Bursts of notifications
// are coalesced; only the last range of a burst is scheduled.
func (l *Loader) NotifyVisibleRange(start, end int) {
	if end < start {
		start, end = end, start
	}
	l.trigger.Trigger(Range{start, end})
}

// Flush runs a pending scheduling pass immediately.
func (l *Loader) Flush() bool {
	return l.trigger.Flush()
}

// GetItem returns the item at index if its chunk is resident and holds it.
func (l *Loader) GetItem(index int) (chunk.Item, bool) {
	if index < 0 || index >= l.conf.Total {
		return chunk.Item{}, false
	}
	return l.store.GetItem(index)
}

// IsLoaded reports whether the chunk of index finished loading, successfully or not.
func (l *Loader) IsLoaded(index int) bool {
	if index < 0 || index >= l.conf.Total {
		return false
	}
	return l.store.Has(l.idOf(index))
}

// Chunk returns the resident chunk holding index, to tell errored chunks apart.
func (l *Loader) Chunk(index int) (*chunk.Chunk, bool) {
	if index < 0 || index >= l.conf.Total {
		return nil, false
	}
	return l.store.Get(l.idOf(index))
}

// InFlight lists the chunks being fetched.
func (l *Loader) InFlight() []chunk.ID {
	return l.reg.IDs()
}

func (l *Loader) Stats() Stats {
	chunks, items := l.store.Stats()
	return Stats{
		Resident:   int(chunks),
		InFlight:   l.reg.Len(),
		Items:      items,
		Passes:     l.passes.Load(),
		Dispatched: l.dispatched.Load(),
		Cancelled:  l.cancelled.Load(),
		Errored:    l.errored.Load(),
		Dropped:    l.dropped.Load(),
	}
}

// busy reports whether a pass is pending or a fetch has not returned.
// locked
func (l *Loader) busy() bool {
	return !l.closed && (l.trigger.Pending() || l.fetching > 0)
}

// Wait blocks until no pass is pending and every dispatched fetch has
// returned, cancelled ones included.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.busy() {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.idle.WaitWithTimeout(10 * time.Millisecond)
	}
	return nil
}

// Close cancels every fetch and stops scheduling. Reads keep working.
func (l *Loader) Close() {
	l.trigger.Stop()
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	n := l.reg.CancelAll()
	l.cancel()
	l.idle.Broadcast()
	l.mu.Unlock()
	if n > 0 {
		logger.Debugf("close: cancelled %d fetches", n)
		l.cancelled.Add(uint64(n))
	}
	l.wg.Wait()
}
