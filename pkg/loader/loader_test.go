package loader

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"AveList/pkg/chunk"
	"AveList/pkg/source"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type call struct {
	id  chunk.ID
	ctx context.Context
}

// fakeSource serves `item-N` records. Fetches block on gate when it is set.
type fakeSource struct {
	sync.Mutex
	total     int
	gate      chan struct{}
	ignoreCtx bool // answer even when cancelled
	short     int  // items missing from the end of every answer
	fail      map[chunk.ID]error

	calls   []chunk.ID
	active  []*call
	overlap []string
}

func newFakeSource(total int) *fakeSource {
	return &fakeSource{total: total, fail: make(map[chunk.ID]error)}
}

func (f *fakeSource) FetchChunk(ctx context.Context, span chunk.Span) ([]chunk.Item, error) {
	id := chunk.ID(span.Start)
	c := &call{id, ctx}
	f.Lock()
	for _, other := range f.active {
		if ctx.Err() == nil && other.id == id && other.ctx.Err() == nil {
			f.overlap = append(f.overlap, fmt.Sprintf("chunk %d", id))
		}
	}
	f.calls = append(f.calls, id)
	f.active = append(f.active, c)
	gate := f.gate
	failure := f.fail[id]
	f.Unlock()
	defer func() {
		f.Lock()
		for i, other := range f.active {
			if other == c {
				f.active = append(f.active[:i], f.active[i+1:]...)
				break
			}
		}
		f.Unlock()
	}()

	if gate != nil {
		if f.ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, errors.Wrapf(source.ErrCancelled, "chunk %d", id)
			}
		}
	}
	if failure != nil {
		return nil, failure
	}
	end := span.End
	if end > f.total {
		end = f.total
	}
	end -= f.short
	items := make([]chunk.Item, 0, span.Len())
	for i := span.Start; i < end; i++ {
		items = append(items, chunk.Item{ID: fmt.Sprintf("item-%d", i), Title: fmt.Sprintf("title %d", i)})
	}
	return items, nil
}

func (f *fakeSource) fetched() map[chunk.ID]int {
	f.Lock()
	defer f.Unlock()
	m := make(map[chunk.ID]int)
	for _, id := range f.calls {
		m[id]++
	}
	return m
}

func ids(vs ...int) []chunk.ID {
	r := make([]chunk.ID, len(vs))
	for i, v := range vs {
		r[i] = chunk.ID(v)
	}
	return r
}

func newTestLoader(t *testing.T, conf Config, src source.Source, opts ...Option) *Loader {
	l, err := New(conf, src, opts...)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func syncConfig(total int) Config {
	conf := DefaultConfig(total)
	conf.Debounce = 0
	conf.MaxWait = 0
	return conf
}

func wait(t *testing.T, l *Loader) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
}

func TestLoadRange(t *testing.T) {
	l := newTestLoader(t, syncConfig(10000), newFakeSource(10000))
	lr, ok := l.loadRange(Range{100, 120})
	require.True(t, ok)
	require.Equal(t, Range{20, 200}, lr)

	lr, ok = l.loadRange(Range{10, 20})
	require.True(t, ok)
	require.Equal(t, Range{0, 100}, lr)

	lr, ok = l.loadRange(Range{9990, 9999})
	require.True(t, ok)
	require.Equal(t, Range{9910, 9999}, lr)

	_, ok = l.loadRange(Range{20000, 20010})
	require.False(t, ok)
}

func TestSettledRangeIsResident(t *testing.T) {
	src := newFakeSource(10000)
	l := newTestLoader(t, syncConfig(10000), src)

	l.NotifyVisibleRange(100, 120)
	wait(t, l)

	for _, id := range ids(0, 40, 80, 120, 160, 200) {
		c, ok := l.Chunk(int(id))
		require.True(t, ok, "chunk %d", id)
		require.Equal(t, chunk.Loaded, c.Status)
		require.Len(t, c.Items, 40)
	}
	require.False(t, l.IsLoaded(240))
	st := l.Stats()
	require.Equal(t, 6, st.Resident)
	require.Equal(t, 0, st.InFlight)
	require.Equal(t, uint64(6), st.Dispatched)
	require.Equal(t, int64(240), st.Items)

	// nothing new to fetch for the same range
	l.NotifyVisibleRange(100, 120)
	wait(t, l)
	require.Len(t, src.fetched(), 6)
	for id, n := range src.fetched() {
		require.Equal(t, 1, n, "chunk %d", id)
	}
}

func TestGetItem(t *testing.T) {
	l := newTestLoader(t, syncConfig(10000), newFakeSource(10000))

	_, ok := l.GetItem(250)
	require.False(t, ok)

	l.NotifyVisibleRange(250, 260)
	wait(t, l)
	c, ok := l.Chunk(250)
	require.True(t, ok)
	require.Equal(t, chunk.ID(240), c.ID)
	require.Equal(t, chunk.Span{Start: 240, End: 280}, c.Span)

	it, ok := l.GetItem(250)
	require.True(t, ok)
	require.Equal(t, c.Items[10], it)
	require.Equal(t, "item-250", it.ID)

	_, ok = l.GetItem(-1)
	require.False(t, ok)
	_, ok = l.GetItem(10000)
	require.False(t, ok)
}

func TestShortChunks(t *testing.T) {
	src := newFakeSource(1010)
	l := newTestLoader(t, syncConfig(1010), src)
	l.NotifyVisibleRange(1000, 1009)
	wait(t, l)

	c, ok := l.Chunk(1005)
	require.True(t, ok)
	require.Equal(t, chunk.Span{Start: 1000, End: 1010}, c.Span)
	require.Len(t, c.Items, 10)
	_, ok = l.GetItem(1009)
	require.True(t, ok)
	_, ok = l.GetItem(1010)
	require.False(t, ok)

	// the server may answer with fewer items than asked
	src = newFakeSource(1000)
	src.short = 5
	l = newTestLoader(t, syncConfig(1000), src)
	l.NotifyVisibleRange(0, 10)
	wait(t, l)
	require.True(t, l.IsLoaded(39))
	_, ok = l.GetItem(34)
	require.True(t, ok)
	_, ok = l.GetItem(35)
	require.False(t, ok)
}

func TestDebounceSupersedesFirstRange(t *testing.T) {
	src := newFakeSource(10000)
	conf := DefaultConfig(10000)
	conf.Debounce = 50 * time.Millisecond
	l := newTestLoader(t, conf, src)

	l.NotifyVisibleRange(100, 120)
	l.NotifyVisibleRange(500, 520)
	require.Empty(t, src.fetched(), "no pass before the debounce window ends")
	wait(t, l)

	fetched := src.fetched()
	require.Len(t, fetched, 6)
	for _, id := range ids(400, 440, 480, 520, 560, 600) {
		require.Equal(t, 1, fetched[id], "chunk %d", id)
	}
	for _, id := range ids(0, 40, 80, 120, 160, 200) {
		require.NotContains(t, fetched, id)
	}
	require.Equal(t, uint64(1), l.Stats().Passes)
}

func TestFlush(t *testing.T) {
	src := newFakeSource(10000)
	conf := DefaultConfig(10000)
	conf.Debounce = time.Hour
	conf.MaxWait = 0
	l := newTestLoader(t, conf, src)

	l.NotifyVisibleRange(0, 10)
	require.True(t, l.Flush())
	require.False(t, l.Flush())
	wait(t, l)
	require.True(t, l.IsLoaded(0))
	require.Len(t, src.fetched(), 3)
}

func TestCancelOutOfRange(t *testing.T) {
	src := newFakeSource(10000)
	src.gate = make(chan struct{})
	l := newTestLoader(t, syncConfig(10000), src)

	l.NotifyVisibleRange(100, 120)
	require.Equal(t, ids(0, 40, 80, 120, 160, 200), l.InFlight())

	// load range [1920,2100] shares nothing with [200,240)
	l.NotifyVisibleRange(2000, 2020)
	require.Equal(t, ids(1920, 1960, 2000, 2040, 2080), l.InFlight())
	require.Equal(t, uint64(6), l.Stats().Cancelled)

	close(src.gate)
	wait(t, l)
	require.False(t, l.IsLoaded(200))
	require.True(t, l.IsLoaded(2100))
	require.Equal(t, 5, l.Stats().Resident)
}

func TestPartialOverlapIsKept(t *testing.T) {
	src := newFakeSource(10000)
	src.gate = make(chan struct{})
	l := newTestLoader(t, syncConfig(10000), src)

	l.NotifyVisibleRange(100, 120)
	// load range [120,300]: chunk 80 ends at 120 and goes, 120 stays
	l.NotifyVisibleRange(200, 220)
	require.Equal(t, ids(120, 160, 200, 240, 280), l.InFlight())
	require.Equal(t, uint64(3), l.Stats().Cancelled)

	close(src.gate)
	wait(t, l)
	fetched := src.fetched()
	for _, id := range ids(120, 160, 200) {
		require.Equal(t, 1, fetched[id], "chunk %d", id)
	}
}

func TestCancelledAnswerIsDropped(t *testing.T) {
	src := newFakeSource(10000)
	src.gate = make(chan struct{})
	src.ignoreCtx = true
	var resolved []chunk.ID
	var mu sync.Mutex
	l := newTestLoader(t, syncConfig(10000), src, WithOnResolve(func(c *chunk.Chunk) {
		mu.Lock()
		resolved = append(resolved, c.ID)
		mu.Unlock()
	}))

	l.NotifyVisibleRange(0, 10)
	l.NotifyVisibleRange(5000, 5010)
	close(src.gate)
	wait(t, l)

	for _, id := range ids(0, 40, 80) {
		require.False(t, l.IsLoaded(int(id)), "chunk %d", id)
	}
	require.True(t, l.IsLoaded(5000))
	st := l.Stats()
	require.Equal(t, uint64(3), st.Cancelled)
	require.Equal(t, uint64(3), st.Dropped)

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, ids(4920, 4960, 5000, 5040, 5080), resolved)
}

func TestCancelledChunkCanBeRequestedAgain(t *testing.T) {
	src := newFakeSource(10000)
	src.gate = make(chan struct{})
	l := newTestLoader(t, syncConfig(10000), src)

	l.NotifyVisibleRange(0, 10)
	l.NotifyVisibleRange(5000, 5010)
	l.NotifyVisibleRange(0, 10)
	require.Equal(t, ids(0, 40, 80), l.InFlight())
	close(src.gate)
	wait(t, l)

	require.True(t, l.IsLoaded(0))
	require.Equal(t, 2, src.fetched()[0])
	src.Lock()
	defer src.Unlock()
	require.Empty(t, src.overlap)
}

func TestErroredChunkIsTerminal(t *testing.T) {
	src := newFakeSource(10000)
	src.fail[40] = errors.Wrap(source.ErrNetwork, "status 502")
	l := newTestLoader(t, syncConfig(10000), src)

	l.NotifyVisibleRange(0, 10)
	wait(t, l)
	require.True(t, l.IsLoaded(50))
	_, ok := l.GetItem(50)
	require.False(t, ok)
	c, ok := l.Chunk(50)
	require.True(t, ok)
	require.Equal(t, chunk.Errored, c.Status)
	require.Empty(t, c.Items)
	require.True(t, errors.Is(c.Err, source.ErrNetwork))
	require.Equal(t, uint64(1), l.Stats().Errored)

	l.NotifyVisibleRange(20, 30)
	wait(t, l)
	require.Equal(t, 1, src.fetched()[40])
}

func TestNoConcurrentFetchOfOneChunk(t *testing.T) {
	src := newFakeSource(10000)
	src.gate = make(chan struct{})
	l := newTestLoader(t, syncConfig(10000), src)

	positions := []int{0, 3000, 100, 3100, 0, 6000, 120, 0}
	for i := 0; i < 5; i++ {
		for _, p := range positions {
			l.NotifyVisibleRange(p, p+20)
		}
	}
	close(src.gate)
	wait(t, l)

	src.Lock()
	require.Empty(t, src.overlap)
	src.Unlock()
	require.Equal(t, ids(0, 40, 80), residentIDs(l, 0, 10000))
}

func residentIDs(l *Loader, start, end int) []chunk.ID {
	var r []chunk.ID
	for _, id := range chunk.IDsInRange(start, end-1, l.Config().ChunkSize) {
		if l.IsLoaded(int(id)) {
			r = append(r, id)
		}
	}
	return r
}

func TestEmptyLoadRangeCancelsAll(t *testing.T) {
	src := newFakeSource(100)
	src.gate = make(chan struct{})
	l := newTestLoader(t, syncConfig(100), src)

	l.NotifyVisibleRange(0, 10)
	require.Len(t, l.InFlight(), 3)
	l.NotifyVisibleRange(500, 600)
	require.Empty(t, l.InFlight())
	close(src.gate)
	wait(t, l)
	require.Equal(t, 0, l.Stats().Resident)
}

func TestClose(t *testing.T) {
	src := newFakeSource(10000)
	src.gate = make(chan struct{})
	src.ignoreCtx = true
	l, err := New(syncConfig(10000), src)
	require.NoError(t, err)

	l.NotifyVisibleRange(0, 10)
	require.Len(t, l.InFlight(), 3)
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(src.gate)
	}()
	l.Close()
	require.Empty(t, l.InFlight())
	require.Equal(t, 0, l.Stats().Resident)

	l.NotifyVisibleRange(100, 200)
	require.Empty(t, l.InFlight())
	wait(t, l)
	l.Close()
}

type fakeMetrics struct {
	sync.Mutex
	passes   int
	outcomes map[string]int
	resident int
	inflight int
}

func (m *fakeMetrics) ObservePass() { m.Lock(); m.passes++; m.Unlock() }
func (m *fakeMetrics) ObserveFetch(outcome string, d time.Duration) {
	m.Lock()
	m.outcomes[outcome]++
	m.Unlock()
}
func (m *fakeMetrics) SetResident(n int) { m.Lock(); m.resident = n; m.Unlock() }
func (m *fakeMetrics) SetInFlight(n int) { m.Lock(); m.inflight = n; m.Unlock() }

func TestMetrics(t *testing.T) {
	src := newFakeSource(10000)
	src.fail[80] = errors.Wrap(source.ErrProtocol, "success is false")
	m := &fakeMetrics{outcomes: make(map[string]int)}
	l := newTestLoader(t, syncConfig(10000), src, WithMetrics(m))

	l.NotifyVisibleRange(0, 10)
	wait(t, l)

	m.Lock()
	defer m.Unlock()
	require.Equal(t, 1, m.passes)
	require.Equal(t, 2, m.outcomes[OutcomeLoaded])
	require.Equal(t, 1, m.outcomes[OutcomeErrored])
	require.Equal(t, 3, m.resident)
	require.Equal(t, 0, m.inflight)
}

func TestConfigCheck(t *testing.T) {
	conf := DefaultConfig(100)
	require.NoError(t, conf.Check())

	conf.MaxWait = 10 * time.Millisecond
	require.NoError(t, conf.Check())
	require.Equal(t, conf.Debounce, conf.MaxWait)

	conf = DefaultConfig(100)
	conf.ChunkSize = 0
	require.Error(t, conf.Check())
	conf = DefaultConfig(-1)
	require.Error(t, conf.Check())
	conf = DefaultConfig(100)
	conf.Buffer = -1
	_, err := New(conf, newFakeSource(100))
	require.Error(t, err)
}
