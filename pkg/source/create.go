// pkg/source/create.go

package source

import (
	"strings"

	"AveList/pkg/dataset"
)

// Create picks the source for uri: http(s) URLs read from the REST backend,
// any dataset uri (mem://, redis://) is served in process.
func Create(uri string, opts Options, conf *dataset.Config) (Source, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return NewHTTP(uri, opts)
	}
	ds, err := dataset.Open(uri, conf)
	if err != nil {
		return nil, err
	}
	return NewLocal(ds), nil
}
