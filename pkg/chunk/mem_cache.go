// pkg/chunk/mem_cache.go

package chunk

import (
	"sync"
)

type memStore struct {
	sync.RWMutex
	size   int
	items  int64
	chunks map[ID]*Chunk
}

// NewMemStore returns a Store keeping every chunk in memory for the session.
func NewMemStore(size int) Store {
	if size <= 0 {
		panic("size of chunk should > 0")
	}
	return &memStore{
		size:   size,
		chunks: make(map[ID]*Chunk),
	}
}

func (c *memStore) Get(id ID) (*Chunk, bool) {
	c.RLock()
	defer c.RUnlock()
	ch, ok := c.chunks[id]
	return ch, ok
}

func (c *memStore) Has(id ID) bool {
	c.RLock()
	defer c.RUnlock()
	_, ok := c.chunks[id]
	return ok
}

func (c *memStore) Put(ch *Chunk) {
	c.Lock()
	defer c.Unlock()
	if old, ok := c.chunks[ch.ID]; ok {
		c.items -= int64(len(old.Items))
		logger.Debugf("replace chunk %d (%s) with %s", ch.ID, old.Status, ch.Status)
	}
	c.chunks[ch.ID] = ch
	c.items += int64(len(ch.Items))
}

func (c *memStore) GetItem(index int) (Item, bool) {
	if index < 0 {
		return Item{}, false
	}
	ch, ok := c.Get(IDOf(index, c.size))
	if !ok {
		return Item{}, false
	}
	return ch.Item(index)
}

func (c *memStore) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.chunks)
}

func (c *memStore) Stats() (int64, int64) {
	c.RLock()
	defer c.RUnlock()
	return int64(len(c.chunks)), c.items
}
