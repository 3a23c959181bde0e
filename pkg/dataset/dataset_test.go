package dataset

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testDataset(t *testing.T, ds Dataset, total int) {
	ctx := context.Background()

	n, err := ds.Total(ctx)
	require.NoError(t, err)
	require.Equal(t, total, n)

	p, err := ds.Slice(ctx, 40, 40)
	require.NoError(t, err)
	require.Len(t, p.Items, 40)
	require.Equal(t, "item-40", p.Items[0].ID)
	require.Equal(t, "item-79", p.Items[39].ID)
	require.Equal(t, Meta{Start: 40, Limit: 40, Returned: 40, Total: total, HasMore: true}, p.Meta)

	// the tail chunk is short
	p, err = ds.Slice(ctx, total-10, 40)
	require.NoError(t, err)
	require.Len(t, p.Items, 10)
	require.False(t, p.Meta.HasMore)

	p, err = ds.Slice(ctx, total+100, 40)
	require.NoError(t, err)
	require.Empty(t, p.Items)

	_, err = ds.Slice(ctx, -1, 40)
	require.Error(t, err)
	_, err = ds.Slice(ctx, 0, 0)
	require.Error(t, err)

	it, err := ds.Get(ctx, "item-7")
	require.NoError(t, err)
	require.Equal(t, "Wu Shi's project 8", it.Title)
	require.Equal(t, "Wu Shi", it.Fields["author"])

	_, err = ds.Get(ctx, "item-x")
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	p, err = ds.Search(ctx, "Li Si", 0, 5)
	require.NoError(t, err)
	require.Len(t, p.Items, 5)
	authored := 0
	for i := 0; i < total; i++ {
		if i%len(names) == 1 {
			authored++
		}
	}
	require.Equal(t, authored, p.Meta.Total)
	require.Equal(t, "Li Si", p.Meta.Keyword)
	for _, it := range p.Items {
		require.Equal(t, "Li Si", it.Fields["author"])
	}

	p, err = ds.Search(ctx, "", 0, 5)
	require.NoError(t, err)
	require.Equal(t, total, p.Meta.Total)
}

func TestMemDataset(t *testing.T) {
	ds, err := Open("mem://1000", &Config{Epoch: epoch})
	require.NoError(t, err)
	defer ds.Close()
	require.Equal(t, "mem", ds.Name())
	testDataset(t, ds, 1000)
}

func TestMemDatasetDefaultCount(t *testing.T) {
	ds, err := Open("mem://", nil)
	require.NoError(t, err)
	n, err := ds.Total(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultCount, n)

	_, err = Open("mem://many", nil)
	require.Error(t, err)
	_, err = Open("postgres://localhost", nil)
	require.Error(t, err)
}

func TestGenerate(t *testing.T) {
	a := Generate(100, 7, epoch)
	b := Generate(100, 7, epoch)
	require.Equal(t, a, b)
	require.Equal(t, epoch.UnixMilli()-100*1000, a[0].Timestamp)
	require.Less(t, a[0].Timestamp, a[99].Timestamp)

	// passthrough fields survive the wire
	data, err := json.Marshal(a[3])
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	require.Equal(t, "item-3", m["id"])
	require.Equal(t, "Marketing", m["department"])
}

func TestRedisDataset(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}
	ds, err := Open("redis://"+addr+"/10", &Config{})
	require.NoError(t, err)
	defer ds.Close()

	ctx := context.Background()
	s := ds.(Seeder)
	format := Format{Name: "test", UUID: "u1", Count: 500, Seed: 1, Created: epoch.UnixMilli()}
	require.NoError(t, s.Init(ctx, format, true))
	// same format is accepted, a different one needs force
	require.NoError(t, s.Init(ctx, format, false))
	format.Count = 600
	require.Error(t, s.Init(ctx, format, false))

	f, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 500, f.Count)

	testDataset(t, ds, 500)
}
