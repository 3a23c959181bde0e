package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCompress(t *testing.T, c Compressor) {
	data := bytes.Repeat([]byte(`{"id":"item-1","title":"hello"},`), 200)
	out, err := Encode(c, data)
	require.NoError(t, err)
	if c.Name() != "none" {
		require.Less(t, len(out), len(data), "%s should shrink repetitive input", c.Name())
	}
	back, err := Decode(c, out, len(data))
	require.NoError(t, err)
	require.Equal(t, data, back)

	_, err = Decode(c, out, len(data)-10)
	require.Error(t, err)
}

func TestCompressors(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		t.Run(name, func(t *testing.T) {
			c := NewCompressor(name)
			require.NotNil(t, c)
			require.Equal(t, name, c.Name())
			testCompress(t, c)
		})
	}
}

func TestUnknownCompressor(t *testing.T) {
	require.Nil(t, NewCompressor("brotli"))
	require.NotNil(t, NewCompressor("ZSTD"))
}
