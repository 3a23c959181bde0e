// pkg/dataset/memory.go

package dataset

import (
	"context"
	"strconv"
	"strings"

	"AveList/pkg/chunk"

	"github.com/pkg/errors"
)

func init() {
	Register("mem", newMemDataset)
}

type memDataset struct {
	items []chunk.Item
	index map[string]int
}

// newMemDataset generates the dataset in memory; addr is the item count, empty for conf.Count.
func newMemDataset(driver, addr string, conf *Config) (Dataset, error) {
	n := conf.Count
	if addr = strings.Trim(addr, "/"); addr != "" {
		var err error
		n, err = strconv.Atoi(addr)
		if err != nil || n < 0 {
			return nil, errors.Errorf("invalid item count %q", addr)
		}
	}
	return NewMemory(Generate(n, conf.Seed, conf.Epoch)), nil
}

// NewMemory serves items as they are.
func NewMemory(items []chunk.Item) Dataset {
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.ID] = i
	}
	return &memDataset{items: items, index: index}
}

func (m *memDataset) Name() string { return "mem" }

func (m *memDataset) Total(ctx context.Context) (int, error) {
	return len(m.items), nil
}

func window(items []chunk.Item, start, limit int) []chunk.Item {
	if start >= len(items) {
		return []chunk.Item{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (m *memDataset) Slice(ctx context.Context, start, limit int) (*Page, error) {
	if err := checkWindow(start, limit); err != nil {
		return nil, err
	}
	return newPage(window(m.items, start, limit), start, limit, len(m.items)), nil
}

func (m *memDataset) Search(ctx context.Context, keyword string, start, limit int) (*Page, error) {
	if err := checkWindow(start, limit); err != nil {
		return nil, err
	}
	results := m.items
	if keyword != "" {
		results = nil
		for _, it := range m.items {
			if matches(it, keyword) {
				results = append(results, it)
			}
		}
	}
	p := newPage(window(results, start, limit), start, limit, len(results))
	p.Meta.Keyword = keyword
	return p, nil
}

func (m *memDataset) Get(ctx context.Context, id string) (chunk.Item, error) {
	i, ok := m.index[id]
	if !ok {
		return chunk.Item{}, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	return m.items[i], nil
}

func (m *memDataset) Close() error { return nil }
