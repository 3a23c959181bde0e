// pkg/loader/scheduler.go

package loader

import (
	"time"

	"AveList/pkg/chunk"
	"AveList/pkg/source"
	"AveList/pkg/utils"
)

func (l *Loader) idOf(index int) chunk.ID {
	return chunk.IDOf(index, l.conf.ChunkSize)
}

// loadRange pads the visible range by the buffer and clamps it to the list.
// It returns false when nothing of the list should be resident.
func (l *Loader) loadRange(r Range) (Range, bool) {
	lr := Range{
		Start: utils.Max(0, r.Start-l.conf.Buffer),
		End:   utils.Min(l.conf.Total-1, r.End+l.conf.Buffer),
	}
	return lr, lr.Start <= lr.End
}

// schedule is one pass of the scheduler, run on the trailing edge of the debouncer.
func (l *Loader) schedule(r Range) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.passes.Inc()
	if l.metrics != nil {
		l.metrics.ObservePass()
	}
	lr, ok := l.loadRange(r)
	l.cancelStale(lr, ok)
	if ok {
		l.dispatch(l.missing(lr))
	}
	l.report()
	l.idle.Broadcast()
}

// cancelStale cancels the fetches of chunks sharing no index with the load
// range. A chunk that still overlaps it keeps loading.
// locked
func (l *Loader) cancelStale(lr Range, ok bool) {
	for _, id := range l.reg.IDs() {
		if ok && chunk.Overlaps(id, l.conf.ChunkSize, lr.Start, lr.End) {
			continue
		}
		if l.reg.Cancel(id) {
			l.cancelled.Inc()
			logger.Debugf("chunk %d left the load range [%d,%d]", id, lr.Start, lr.End)
		}
	}
}

// missing lists the chunks of the load range neither resident nor in flight.
// locked
func (l *Loader) missing(lr Range) []chunk.ID {
	var ids []chunk.ID
	for _, id := range chunk.IDsInRange(lr.Start, lr.End, l.conf.ChunkSize) {
		if l.store.Has(id) || l.reg.Has(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// locked
func (l *Loader) dispatch(ids []chunk.ID) {
	for _, id := range ids {
		tok, err := l.reg.Begin(l.ctx, id)
		if err != nil {
			logger.Errorf("dispatch: %s", err)
			continue
		}
		l.dispatched.Inc()
		l.fetching++
		l.wg.Add(1)
		go l.fetch(tok)
	}
	if len(ids) > 0 {
		logger.Debugf("dispatched %d chunks from %d", len(ids), ids[0])
	}
}

func (l *Loader) fetch(tok *chunk.Token) {
	defer l.wg.Done()
	defer func() {
		l.mu.Lock()
		l.fetching--
		l.idle.Broadcast()
		l.mu.Unlock()
	}()
	span := chunk.SpanOf(tok.ID(), l.conf.ChunkSize, l.conf.Total)
	start := time.Now()
	items, err := l.src.FetchChunk(tok.Context(), span)
	c, outcome := l.resolve(tok, span, items, err)
	if l.metrics != nil {
		l.metrics.ObserveFetch(outcome, time.Since(start))
	}
	if c != nil && l.onResolve != nil {
		l.onResolve(c)
	}
}

// resolve records the result of tok's fetch. Only the token still registered
// for its chunk may write the store; a cancelled fetch never does.
func (l *Loader) resolve(tok *chunk.Token, span chunk.Span, items []chunk.Item, err error) (*chunk.Chunk, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.idle.Broadcast()

	if err != nil && (source.IsCancelled(err) || tok.Context().Err() != nil) {
		l.reg.Complete(tok)
		l.report()
		logger.Debugf("fetch of chunk %d cancelled", tok.ID())
		return nil, OutcomeCancelled
	}
	if !l.reg.Current(tok) {
		l.dropped.Inc()
		logger.Debugf("drop late answer for %s", tok)
		return nil, OutcomeDropped
	}

	c := &chunk.Chunk{
		ID:       tok.ID(),
		Span:     span,
		Items:    items,
		Status:   chunk.Loaded,
		LoadedAt: utils.Now(),
	}
	outcome := OutcomeLoaded
	if err != nil {
		c.Items = nil
		c.Status = chunk.Errored
		c.Err = err
		outcome = OutcomeErrored
		l.errored.Inc()
		logger.Warnf("load chunk %d: %s", tok.ID(), err)
	}
	l.store.Put(c)
	l.reg.Complete(tok)
	l.report()
	return c, outcome
}

// locked
func (l *Loader) report() {
	if l.metrics != nil {
		l.metrics.SetResident(l.store.Len())
		l.metrics.SetInFlight(l.reg.Len())
	}
}
