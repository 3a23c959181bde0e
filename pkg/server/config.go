// pkg/server/config.go

package server

import (
	"net/http"
	"time"
)

// Config of the mock backend.
type Config struct {
	Listen      string
	DelayMin    time.Duration // random latency added to data and search requests
	DelayMax    time.Duration
	Compress    bool          // honour Accept-Encoding zstd/lz4
	SlowRequest time.Duration // requests slower than this are logged at info level
	Production  bool          // hide panic details in 500 responses

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// Observer, when set, is told about every request.
	Observer Observer
}

// Observer receives per request measurements.
type Observer interface {
	ObserveRequest(route, method string, status int, d time.Duration)
}

func (c *Config) Check() {
	if c.Listen == "" {
		c.Listen = ":3001"
	}
	if c.DelayMin < 0 {
		c.DelayMin = 0
	}
	if c.DelayMax < c.DelayMin {
		c.DelayMax = c.DelayMin
	}
	if c.SlowRequest <= 0 {
		c.SlowRequest = time.Second * 10
	}
}
