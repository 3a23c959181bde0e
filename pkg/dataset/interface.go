// pkg/dataset/interface.go

package dataset

import (
	"context"
	"strings"

	"AveList/pkg/chunk"
	"AveList/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("avelist")

// ErrNotFound is returned by Get for an unknown item id.
var ErrNotFound = errors.New("item not found")

// Meta describes a page returned by Slice or Search.
type Meta struct {
	Start    int    `json:"start"`
	Limit    int    `json:"limit"`
	Returned int    `json:"returned"`
	Total    int    `json:"total"`
	HasMore  bool   `json:"hasMore"`
	Keyword  string `json:"keyword,omitempty"`
}

type Page struct {
	Items []chunk.Item
	Meta  Meta
}

func newPage(items []chunk.Item, start, limit, total int) *Page {
	return &Page{
		Items: items,
		Meta: Meta{
			Start:    start,
			Limit:    limit,
			Returned: len(items),
			Total:    total,
			HasMore:  start+limit < total,
		},
	}
}

// Dataset is the ordered collection of items served to the list.
type Dataset interface {
	// Name of the driver.
	Name() string
	// Total returns the number of items.
	Total(ctx context.Context) (int, error)
	// Slice returns up to limit items starting at start.
	Slice(ctx context.Context, start, limit int) (*Page, error)
	// Search returns a page of the items whose title, content or author contain keyword.
	Search(ctx context.Context, keyword string, start, limit int) (*Page, error)
	// Get returns one item by id.
	Get(ctx context.Context, id string) (chunk.Item, error)
	// Close releases the connection, if any.
	Close() error
}

// Seeder is implemented by datasets that persist a generated collection.
type Seeder interface {
	Init(ctx context.Context, format Format, force bool) error
	Load(ctx context.Context) (*Format, error)
}

type Creator func(driver, addr string, conf *Config) (Dataset, error)

var drivers = make(map[string]Creator)

func Register(name string, register Creator) {
	drivers[name] = register
}

// Open creates a dataset from uri, `mem://10000` or `redis://host:port/db`.
func Open(uri string, conf *Config) (Dataset, error) {
	if !strings.Contains(uri, "://") {
		uri = "redis://" + uri
	}
	logger.Debugf("Dataset address: %s", uri)
	p := strings.Index(uri, "://")
	driver := uri[:p]
	f, ok := drivers[driver]
	if !ok {
		return nil, errors.Errorf("invalid dataset driver: %s", driver)
	}
	if conf == nil {
		conf = &Config{}
	}
	conf.Check()
	return f(driver, uri[p+3:], conf)
}

// NewClient is Open for command line tools: it exits on failure.
func NewClient(uri string, conf *Config) Dataset {
	ds, err := Open(uri, conf)
	if err != nil {
		logger.Fatalf("Dataset %s is not available: %s", uri, err)
	}
	return ds
}

func checkWindow(start, limit int) error {
	if start < 0 {
		return errors.Errorf("invalid start %d", start)
	}
	if limit <= 0 {
		return errors.Errorf("invalid limit %d", limit)
	}
	return nil
}

func matches(it chunk.Item, keyword string) bool {
	if keyword == "" {
		return true
	}
	author, _ := it.Fields["author"].(string)
	return strings.Contains(it.Title, keyword) ||
		strings.Contains(it.Content, keyword) ||
		strings.Contains(author, keyword)
}
