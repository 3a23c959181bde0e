// pkg/utils/debounce.go

package utils

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of Trigger calls into a single trailing call of
// fn carrying the last value. When maxWait > 0 a burst never delays fn for
// longer than maxWait counted from its first Trigger.
type Debouncer[T any] struct {
	mu      sync.Mutex
	wait    time.Duration
	maxWait time.Duration
	fn      func(T)

	pending bool
	value   T
	first   time.Time // first trigger of the pending burst
	timer   *time.Timer
	gen     uint64
	running int // calls of fn in progress
	stopped bool
}

func NewDebouncer[T any](wait, maxWait time.Duration, fn func(T)) *Debouncer[T] {
	if maxWait > 0 && maxWait < wait {
		maxWait = wait
	}
	return &Debouncer[T]{wait: wait, maxWait: maxWait, fn: fn}
}

// Trigger records v as the latest value and (re)arms the trailing timer.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.wait <= 0 {
		d.mu.Unlock()
		d.fn(v)
		return
	}
	now := Now()
	if !d.pending {
		d.pending = true
		d.first = now
	}
	d.value = v

	delay := d.wait
	if d.maxWait > 0 {
		if left := d.first.Add(d.maxWait).Sub(now); left < delay {
			delay = left
		}
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(delay, func() { d.fire(gen) })
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending || d.stopped {
		// superseded by a later Trigger, a Flush or Stop
		d.mu.Unlock()
		return
	}
	v := d.take()
	d.mu.Unlock()
	d.call(v)
}

func (d *Debouncer[T]) call(v T) {
	defer func() {
		d.mu.Lock()
		d.running--
		d.mu.Unlock()
	}()
	d.fn(v)
}

// locked
func (d *Debouncer[T]) take() T {
	v := d.value
	var zero T
	d.value = zero
	d.pending = false
	d.timer = nil
	d.gen++
	d.running++
	return v
}

// Flush runs the pending call right away. It returns false if nothing was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.take()
	d.mu.Unlock()
	d.call(v)
	return true
}

// Pending reports whether a trailing call is scheduled or still running.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending || d.running > 0
}

// Stop drops the pending call; later triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.stopped = true
	d.gen++
}
