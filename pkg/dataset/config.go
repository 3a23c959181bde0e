// pkg/dataset/config.go

package dataset

import "time"

// DefaultCount is the size of a generated dataset.
const DefaultCount = 10000

// Config for dataset clients.
type Config struct {
	Retries int
	Count   int   // items generated by the mem driver when the uri gives none
	Seed    int64 // seed of the random columns (views, likes)
	Epoch   time.Time
}

func (c *Config) Check() {
	if c.Count <= 0 {
		c.Count = DefaultCount
	}
	if c.Epoch.IsZero() {
		c.Epoch = time.Now()
	}
}

// Format is the persisted description of a seeded dataset.
type Format struct {
	Name    string
	UUID    string
	Count   int
	Seed    int64
	Created int64
}
