package chunk

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestIDOf(t *testing.T) {
	for _, size := range []int{1, 7, 40, 100} {
		for index := 0; index < 1000; index++ {
			id := IDOf(index, size)
			require.Zero(t, int(id)%size)
			require.LessOrEqual(t, int(id), index)
			require.Less(t, index, int(id)+size)
		}
	}
	require.Equal(t, ID(240), IDOf(250, 40))
}

func TestIDsInRange(t *testing.T) {
	require.Equal(t, []ID{0, 40, 80, 120, 160, 200}, IDsInRange(20, 200, 40))
	require.Equal(t, []ID{1920, 1960, 2000, 2040, 2080}, IDsInRange(1920, 2100, 40))
	require.Equal(t, []ID{40}, IDsInRange(40, 79, 40))
	require.Equal(t, []ID{40, 80}, IDsInRange(40, 80, 40))
	require.Nil(t, IDsInRange(10, 9, 40))
}

func TestOverlaps(t *testing.T) {
	require.True(t, Overlaps(120, 40, 120, 300))
	require.True(t, Overlaps(80, 40, 0, 80))
	require.False(t, Overlaps(80, 40, 120, 300))
	require.False(t, Overlaps(200, 40, 1920, 2100))
	require.False(t, Overlaps(200, 40, 0, 199))
	require.True(t, Overlaps(200, 40, 239, 239))
}

func TestSpanOf(t *testing.T) {
	require.Equal(t, Span{Start: 40, End: 80}, SpanOf(40, 40, 10000))
	s := SpanOf(1000, 40, 1010)
	require.Equal(t, 10, s.Len())
	require.Equal(t, "[1000,1010)", s.String())
	require.Equal(t, Span{Start: 40, End: 80}, SpanOf(40, 40, 0))
}

func items(start, n int) []Item {
	r := make([]Item, n)
	for i := range r {
		r[i] = Item{ID: fmt.Sprintf("item-%d", start+i)}
	}
	return r
}

func TestMemStore(t *testing.T) {
	s := NewMemStore(40)
	_, ok := s.GetItem(10)
	require.False(t, ok)

	s.Put(&Chunk{ID: 40, Span: Span{40, 80}, Items: items(40, 35), Status: Loaded})
	require.True(t, s.Has(40))
	require.False(t, s.Has(0))

	it, ok := s.GetItem(74)
	require.True(t, ok)
	require.Equal(t, "item-74", it.ID)
	_, ok = s.GetItem(75) // short answer
	require.False(t, ok)
	_, ok = s.GetItem(-1)
	require.False(t, ok)

	s.Put(&Chunk{ID: 0, Span: Span{0, 40}, Status: Errored, Err: errors.New("boom")})
	require.True(t, s.Has(0))
	_, ok = s.GetItem(3)
	require.False(t, ok)

	chunks, n := s.Stats()
	require.Equal(t, int64(2), chunks)
	require.Equal(t, int64(35), n)
	require.Equal(t, 2, s.Len())

	s.Put(&Chunk{ID: 40, Span: Span{40, 80}, Items: items(40, 40), Status: Loaded})
	_, n = s.Stats()
	require.Equal(t, int64(40), n)

	require.Panics(t, func() { NewMemStore(0) })
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	t1, err := r.Begin(ctx, 40)
	require.NoError(t, err)
	require.True(t, r.Has(40))
	_, err = r.Begin(ctx, 40)
	require.True(t, errors.Is(err, ErrInFlight))

	t2, err := r.Begin(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, []ID{0, 40}, r.IDs())

	require.True(t, r.Cancel(40))
	require.Error(t, t1.Context().Err())
	require.False(t, r.Cancel(40))
	require.False(t, r.Current(t1))
	require.False(t, r.Complete(t1))

	// a new fetch of a cancelled chunk is not disturbed by the old token
	t3, err := r.Begin(ctx, 40)
	require.NoError(t, err)
	require.False(t, r.Complete(t1))
	require.True(t, r.Current(t3))
	require.NoError(t, t3.Context().Err())

	require.True(t, r.Complete(t2))
	require.False(t, r.Complete(t2))
	require.Equal(t, 1, r.Len())

	require.Equal(t, 1, r.CancelAll())
	require.Error(t, t3.Context().Err())
	require.Equal(t, 0, r.Len())
	require.Equal(t, 0, r.CancelAll())
}

func TestRegistryParentContext(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	tok, err := r.Begin(ctx, 0)
	require.NoError(t, err)
	cancel()
	require.Error(t, tok.Context().Err())
	require.True(t, r.Current(tok))
}

func TestItemJSON(t *testing.T) {
	raw := `{"id":"item-1","title":"t","content":"c","timestamp":1700000000000,"department":"ops","views":12}`
	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	require.Equal(t, "item-1", it.ID)
	require.Equal(t, int64(1700000000000), it.Timestamp)
	require.Equal(t, []string{"department", "views"}, it.FieldNames())
	require.Equal(t, "ops", it.Fields["department"])

	out, err := json.Marshal(it)
	require.NoError(t, err)
	require.JSONEq(t, raw, string(out))
}
