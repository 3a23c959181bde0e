// pkg/compress/compress.go

package compress

import (
	"fmt"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/hungys/go-lz4"
)

// RawLengthHeader carries the uncompressed body length of a compressed HTTP response.
const RawLengthHeader = "X-Raw-Length"

// ZSTD_LEVEL compression level used by ZStandard.
const ZSTD_LEVEL = 1

// Compressor compresses response payloads between the mock server and the HTTP source.
type Compressor interface {
	Name() string
	CompressBound(int) int
	Compress(dst, src []byte) (int, error)
	Decompress(dst, src []byte) (int, error)
}

// NewCompressor returns the compressor of algr, or nil when it is unknown.
func NewCompressor(algr string) Compressor {
	algr = strings.ToLower(algr)
	switch algr {
	case "zstd":
		return ZStandard{ZSTD_LEVEL}
	case "lz4":
		return LZ4{}
	case "none", "":
		return noOp{}
	}
	return nil
}

// Names lists the algorithms NewCompressor knows, in preference order.
func Names() []string {
	return []string{"zstd", "lz4"}
}

type noOp struct{}

func (n noOp) Name() string            { return "none" }
func (n noOp) CompressBound(l int) int { return l }
func (n noOp) Compress(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, fmt.Errorf("buffer too short: %d < %d", len(dst), len(src))
	}
	copy(dst, src)
	return len(src), nil
}
func (n noOp) Decompress(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, fmt.Errorf("buffer too short: %d < %d", len(dst), len(src))
	}
	copy(dst, src)
	return len(src), nil
}

type ZStandard struct {
	level int
}

func (n ZStandard) Name() string            { return "zstd" }
func (n ZStandard) CompressBound(l int) int { return zstd.CompressBound(l) }
func (n ZStandard) Compress(dst, src []byte) (int, error) {
	d, err := zstd.CompressLevel(dst, src, n.level)
	if err != nil {
		return 0, err
	}
	if len(d) > 0 && len(dst) > 0 && &d[0] != &dst[0] {
		return 0, fmt.Errorf("buffer too short: %d < %d", cap(dst), cap(d))
	}
	return len(d), err
}

func (n ZStandard) Decompress(dst, src []byte) (int, error) {
	d, err := zstd.Decompress(dst, src)
	if err != nil {
		return 0, err
	}
	if len(d) > 0 && len(dst) > 0 && &d[0] != &dst[0] {
		return 0, fmt.Errorf("buffer too short: %d < %d", len(dst), len(d))
	}
	return len(d), err
}

type LZ4 struct{}

func (l LZ4) Name() string            { return "lz4" }
func (l LZ4) CompressBound(size int) int { return lz4.CompressBound(size) }
func (l LZ4) Compress(dst, src []byte) (int, error) {
	return lz4.CompressDefault(src, dst)
}
func (l LZ4) Decompress(dst, src []byte) (int, error) {
	return lz4.DecompressSafe(src, dst)
}

// Encode compresses src into a freshly allocated buffer.
func Encode(c Compressor, src []byte) ([]byte, error) {
	buf := make([]byte, c.CompressBound(len(src)))
	n, err := c.Compress(buf, src)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Decode decompresses src whose uncompressed length is rawLen.
func Decode(c Compressor, src []byte, rawLen int) ([]byte, error) {
	buf := make([]byte, rawLen)
	n, err := c.Decompress(buf, src)
	if err != nil {
		return nil, err
	}
	if n != rawLen {
		return nil, fmt.Errorf("decompressed %d bytes, expect %d", n, rawLen)
	}
	return buf[:n], nil
}
