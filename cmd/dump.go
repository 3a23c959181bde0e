// cmd/dump.go

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"AveList/pkg/chunk"
	"AveList/pkg/loader"
	"AveList/pkg/utils"

	"github.com/urfave/cli/v2"
)

func dump(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 3 {
		logger.Fatalf("SOURCE, START and END are needed")
	}
	start, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		logger.Fatalf("invalid start %s: %s", c.Args().Get(1), err)
	}
	end, err := strconv.Atoi(c.Args().Get(2))
	if err != nil {
		logger.Fatalf("invalid end %s: %s", c.Args().Get(2), err)
	}
	if end < start {
		start, end = end, start
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	src, total := openSource(ctx, c, c.Args().Get(0))
	conf := loaderConfig(c, total)
	conf.Buffer = 0
	conf.Debounce = 0
	l, err := loader.New(conf, src)
	if err != nil {
		logger.Fatalf("loader: %s", err)
	}
	defer l.Close()

	l.NotifyVisibleRange(start, end)
	wctx, cancel := context.WithTimeout(ctx, c.Duration("settle"))
	defer cancel()
	if err = l.Wait(wctx); err != nil {
		logger.Fatalf("load [%d,%d]: %s", start, end, err)
	}

	enc := json.NewEncoder(os.Stdout)
	var missing int
	for i := start; i <= end && i < total; i++ {
		it, ok := l.GetItem(i)
		if !ok {
			missing++
			if ch, ok := l.Chunk(i); ok && ch.Status == chunk.Errored && i == utils.Max(start, ch.Span.Start) {
				logger.Errorf("chunk %d: %s", ch.ID, ch.Err)
			}
			continue
		}
		if err = enc.Encode(it); err != nil {
			return err
		}
	}
	if missing > 0 {
		logger.Warnf("%d items are missing", missing)
	}
	return nil
}

func dumpFlags() *cli.Command {
	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:  "settle",
			Value: time.Minute,
			Usage: "how long to wait for the range to load",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Value: loader.DefaultConfig(0).ChunkSize,
			Usage: "items per fetch",
		},
	}
	flags = append(flags, sourceFlags()...)
	return &cli.Command{
		Name:      "dump",
		Usage:     "load an index range and print its items as JSON lines",
		ArgsUsage: "SOURCE START END",
		Action:    dump,
		Flags:     flags,
	}
}
