// pkg/source/http.go

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"AveList/pkg/chunk"
	"AveList/pkg/compress"
	"AveList/pkg/dataset"
	"AveList/pkg/version"

	"github.com/pkg/errors"
)

// DataPath is the route serving chunks, relative to the server base URL.
const DataPath = "/api/virtual-list/data"

// Options of the HTTP source.
type Options struct {
	Timeout   time.Duration
	Compress  string // zstd, lz4 or empty
	UserAgent string
	Client    *http.Client
}

// HTTP reads chunks from the REST backend.
type HTTP struct {
	base       string
	client     *http.Client
	compressor compress.Compressor
	userAgent  string
}

// envelope is the body of every API response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *dataset.Meta   `json:"meta"`
	Total   *int            `json:"total"`
	Error   interface{}     `json:"error"`
}

// NewHTTP returns a Source reading chunks from the REST backend at base.
func NewHTTP(base string, opts Options) (*HTTP, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", base)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	s := &HTTP{
		base:      strings.TrimSuffix(base, "/"),
		client:    opts.Client,
		userAgent: opts.UserAgent,
	}
	if s.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		s.client = &http.Client{Timeout: timeout}
	}
	if s.userAgent == "" {
		s.userAgent = version.UserAgent()
	}
	if opts.Compress != "" && opts.Compress != "none" {
		s.compressor = compress.NewCompressor(opts.Compress)
		if s.compressor == nil {
			return nil, errors.Errorf("unsupported compress algorithm: %s", opts.Compress)
		}
	}
	return s, nil
}

func (s *HTTP) String() string {
	return s.base
}

func (s *HTTP) get(ctx context.Context, path string, query url.Values) (*envelope, error) {
	u := s.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrNetwork, "new request %s: %s", u, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	if s.compressor != nil {
		req.Header.Set("Accept-Encoding", s.compressor.Name())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ErrCancelled, "GET %s: %s", u, ctx.Err())
		}
		return nil, errors.Wrapf(ErrNetwork, "GET %s: %s", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ErrCancelled, "read %s: %s", u, ctx.Err())
		}
		return nil, errors.Wrapf(ErrNetwork, "read %s: %s", u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(ErrNetwork, "GET %s: status %d", u, resp.StatusCode)
	}
	if body, err = s.decode(resp, body); err != nil {
		return nil, errors.Wrapf(ErrProtocol, "GET %s: %s", u, err)
	}

	var env envelope
	if err = json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrapf(ErrProtocol, "GET %s: %s", u, err)
	}
	if !env.Success {
		return nil, errors.Wrapf(ErrProtocol, "GET %s: success is false (%v)", u, env.Error)
	}
	return &env, nil
}

func (s *HTTP) decode(resp *http.Response, body []byte) ([]byte, error) {
	enc := resp.Header.Get("Content-Encoding")
	if enc == "" || enc == "identity" {
		return body, nil
	}
	c := compress.NewCompressor(enc)
	if c == nil {
		return nil, fmt.Errorf("unknown content encoding %q", enc)
	}
	rawLen, err := strconv.Atoi(resp.Header.Get(compress.RawLengthHeader))
	if err != nil || rawLen < 0 {
		return nil, fmt.Errorf("invalid %s %q", compress.RawLengthHeader, resp.Header.Get(compress.RawLengthHeader))
	}
	return compress.Decode(c, body, rawLen)
}

func (s *HTTP) FetchChunk(ctx context.Context, span chunk.Span) ([]chunk.Item, error) {
	query := url.Values{}
	query.Set("start", strconv.Itoa(span.Start))
	query.Set("limit", strconv.Itoa(span.Len()))
	env, err := s.get(ctx, DataPath, query)
	if err != nil {
		return nil, err
	}
	var items []chunk.Item
	if err = json.Unmarshal(env.Data, &items); err != nil {
		return nil, errors.Wrapf(ErrProtocol, "chunk %s: %s", span, err)
	}
	if env.Meta != nil && env.Meta.Returned != len(items) {
		return nil, errors.Wrapf(ErrProtocol, "chunk %s: meta says %d items, got %d", span, env.Meta.Returned, len(items))
	}
	if len(items) > span.Len() {
		logger.Warnf("chunk %s: server returned %d items, keep %d", span, len(items), span.Len())
		items = items[:span.Len()]
	}
	return items, nil
}

// Total asks the backend for the number of items.
func (s *HTTP) Total(ctx context.Context) (int, error) {
	env, err := s.get(ctx, DataPath+"/count", nil)
	if err != nil {
		return 0, err
	}
	if env.Total == nil {
		return 0, errors.Wrap(ErrProtocol, "count: total is missing")
	}
	return *env.Total, nil
}
