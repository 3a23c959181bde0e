// cmd/source.go

package main

import (
	"context"
	"time"

	"AveList/pkg/dataset"
	"AveList/pkg/loader"
	"AveList/pkg/source"

	"github.com/urfave/cli/v2"
)

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "total",
			Usage: "number of items, asked to the source when not set",
		},
		&cli.IntFlag{
			Name:  "count",
			Value: dataset.DefaultCount,
			Usage: "number of generated items for mem:// sources",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "seed of the generated columns for mem:// sources",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 30 * time.Second,
			Usage: "timeout of each request",
		},
		&cli.StringFlag{
			Name:  "compress",
			Usage: "ask the server for compressed responses (lz4, zstd)",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "limit fetches per second, 0 for no limit",
		},
		&cli.Int64Flag{
			Name:  "burst",
			Value: 4,
			Usage: "fetches allowed at once when --rate is set",
		},
	}
}

func loaderFlags() []cli.Flag {
	defaults := loader.DefaultConfig(0)
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "chunk-size",
			Value: defaults.ChunkSize,
			Usage: "items per fetch",
		},
		&cli.IntFlag{
			Name:  "buffer",
			Value: defaults.Buffer,
			Usage: "items kept loaded on each side of the visible range",
		},
		&cli.DurationFlag{
			Name:  "debounce",
			Value: defaults.Debounce,
			Usage: "quiet period before loading",
		},
		&cli.DurationFlag{
			Name:  "max-wait",
			Value: defaults.MaxWait,
			Usage: "longest delay of a load while scrolling",
		},
	}
}

// openSource creates the source for uri, an http(s) backend or a dataset
// URL, and finds out the size of the list.
func openSource(ctx context.Context, c *cli.Context, uri string) (source.Source, int) {
	opts := source.Options{
		Timeout:  c.Duration("timeout"),
		Compress: c.String("compress"),
	}
	src, err := source.Create(uri, opts, &dataset.Config{
		Retries: 2,
		Count:   c.Int("count"),
		Seed:    c.Int64("seed"),
	})
	if err != nil {
		logger.Fatalf("source %s: %s", uri, err)
	}
	total := c.Int("total")
	if total <= 0 {
		counter, ok := src.(source.Counter)
		if !ok {
			logger.Fatalf("size of %s is unknown, please set --total", uri)
		}
		if total, err = counter.Total(ctx); err != nil {
			logger.Fatalf("count %s: %s", uri, err)
		}
	}
	if rate := c.Float64("rate"); rate > 0 {
		src = source.NewLimited(src, rate, c.Int64("burst"))
	}
	logger.Debugf("source %s has %d items", uri, total)
	return src, total
}

func loaderConfig(c *cli.Context, total int) loader.Config {
	return loader.Config{
		Total:     total,
		ChunkSize: c.Int("chunk-size"),
		Buffer:    c.Int("buffer"),
		Debounce:  c.Duration("debounce"),
		MaxWait:   c.Duration("max-wait"),
	}
}
