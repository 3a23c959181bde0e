// pkg/loader/config.go

package loader

import (
	"time"

	"github.com/pkg/errors"
)

// Config of a Loader.
type Config struct {
	Total     int           // number of items in the list
	ChunkSize int           // items per fetch
	Buffer    int           // items kept loaded on each side of the visible range
	Debounce  time.Duration // quiet period before a scheduling pass, <= 0 to schedule synchronously
	MaxWait   time.Duration // upper bound on the delay of a pass under continuous notifications
}

// DefaultConfig returns the settings tuned for a list scrolled by hand.
func DefaultConfig(total int) Config {
	return Config{
		Total:     total,
		ChunkSize: 40,
		Buffer:    80,
		Debounce:  150 * time.Millisecond,
		MaxWait:   300 * time.Millisecond,
	}
}

func (c *Config) Check() error {
	if c.Total < 0 {
		return errors.Errorf("invalid total %d", c.Total)
	}
	if c.ChunkSize <= 0 {
		return errors.Errorf("invalid chunk size %d", c.ChunkSize)
	}
	if c.Buffer < 0 {
		return errors.Errorf("invalid buffer %d", c.Buffer)
	}
	if c.MaxWait > 0 && c.MaxWait < c.Debounce {
		logger.Warnf("max wait %s is shorter than debounce %s, use %s", c.MaxWait, c.Debounce, c.Debounce)
		c.MaxWait = c.Debounce
	}
	return nil
}
