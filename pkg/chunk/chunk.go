// pkg/chunk/chunk.go

package chunk

import (
	"fmt"
	"time"

	"AveList/pkg/utils"
)

var logger = utils.GetLogger("avelist")

// ID is the index of the first item of a chunk, always a multiple of the chunk size.
type ID int

// IDOf returns the id of the chunk holding index.
func IDOf(index, size int) ID {
	return ID(index / size * size)
}

// Span is the half-open index range [Start, End) covered by a chunk.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// SpanOf returns the span of chunk id, cut at total when total > 0.
func SpanOf(id ID, size, total int) Span {
	end := int(id) + size
	if total > 0 && end > total {
		end = total
	}
	return Span{Start: int(id), End: end}
}

// IDsInRange lists the ids of every chunk touching the inclusive range [start, end].
func IDsInRange(start, end, size int) []ID {
	if start > end {
		return nil
	}
	first, last := IDOf(start, size), IDOf(end, size)
	ids := make([]ID, 0, int(last-first)/size+1)
	for id := first; id <= last; id += ID(size) {
		ids = append(ids, id)
	}
	return ids
}

// Overlaps reports whether chunk id shares any index with the inclusive range [start, end].
func Overlaps(id ID, size, start, end int) bool {
	return int(id)+size > start && int(id) <= end
}

type Status uint8

const (
	Loaded Status = iota + 1
	Errored
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Chunk is a finished fetch. It is never modified after Put, only replaced.
type Chunk struct {
	ID       ID
	Span     Span
	Items    []Item
	Status   Status
	Err      error
	LoadedAt time.Time
}

// Item returns the item at global index, if the chunk holds it.
func (c *Chunk) Item(index int) (Item, bool) {
	off := index - c.Span.Start
	if off < 0 || off >= len(c.Items) {
		return Item{}, false
	}
	return c.Items[off], true
}

// Store keeps resident chunks keyed by id.
type Store interface {
	Get(id ID) (*Chunk, bool)
	Has(id ID) bool
	Put(c *Chunk)
	GetItem(index int) (Item, bool)
	Len() int
	Stats() (chunks, items int64)
}
