// cmd/scroll.go

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"AveList/pkg/chunk"
	"AveList/pkg/loader"
	"AveList/pkg/metrics"
	"AveList/pkg/utils"

	"github.com/urfave/cli/v2"
)

type scrollReport struct {
	loader.Stats
	Positions int
	Visible   int64
	Hits      int64
	HitRatio  float64
	Used      string
}

func scroll(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		logger.Fatalf("SOURCE is needed")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	src, total := openSource(ctx, c, c.Args().Get(0))
	conf := loaderConfig(c, total)

	from, to := c.Int("from"), c.Int("to")
	if to <= 0 || to > total {
		to = total
	}
	viewport, step := c.Int("viewport"), c.Int("step")
	if viewport <= 0 || step <= 0 {
		logger.Fatalf("viewport and step should be positive")
	}
	positions := 0
	if to-from >= viewport {
		positions = (to-from-viewport)/step + 1
	}

	progress := utils.NewProgress(c.Bool("quiet") || c.Bool("verbose"))
	scrolled := utils.AddCountersBar(progress, "Scrolled:", int64(positions))
	lo, hi := utils.Max(0, from-conf.Buffer), utils.Min(total-1, to-1+conf.Buffer)
	loaded := utils.AddCountersBar(progress, "Loaded chunks:", int64(len(chunk.IDsInRange(lo, hi, utils.Max(conf.ChunkSize, 1)))))

	opts := []loader.Option{loader.WithOnResolve(func(*chunk.Chunk) { loaded.Increment() })}
	if addr := c.String("metrics"); addr != "" {
		reg := metrics.NewRegistry()
		opts = append(opts, loader.WithMetrics(metrics.NewLoaderMetrics(reg)))
		go func() {
			if err := http.ListenAndServe(addr, metrics.Handler(reg)); err != nil {
				logger.Errorf("metrics: %s", err)
			}
		}()
	}
	l, err := loader.New(conf, src, opts...)
	if err != nil {
		logger.Fatalf("loader: %s", err)
	}
	defer l.Close()

	start := time.Now()
	ticker := time.NewTicker(c.Duration("interval"))
	defer ticker.Stop()
	report := scrollReport{Positions: positions}
loop:
	for pos := from; pos+viewport <= to; pos += step {
		l.NotifyVisibleRange(pos, pos+viewport-1)
		for i := pos; i < pos+viewport; i++ {
			report.Visible++
			if _, ok := l.GetItem(i); ok {
				report.Hits++
			}
		}
		scrolled.Increment()
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}

	l.Flush()
	wctx, cancel := context.WithTimeout(ctx, c.Duration("settle"))
	defer cancel()
	if err = l.Wait(wctx); err != nil {
		logger.Warnf("loader did not settle: %s", err)
	}
	scrolled.SetTotal(-1, true)
	loaded.SetTotal(-1, true)
	progress.Wait()

	report.Stats = l.Stats()
	if report.Visible > 0 {
		report.HitRatio = float64(report.Hits) / float64(report.Visible)
	}
	report.Used = time.Since(start).Round(time.Millisecond).String()
	printJson(&report)
	return nil
}

func scrollFlags() *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:  "from",
			Usage: "first visible index",
		},
		&cli.IntFlag{
			Name:  "to",
			Usage: "stop when the viewport reaches this index, 0 for the end of the list",
		},
		&cli.IntFlag{
			Name:  "viewport",
			Value: 20,
			Usage: "items visible at once",
		},
		&cli.IntFlag{
			Name:  "step",
			Value: 5,
			Usage: "items scrolled per tick",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: 16 * time.Millisecond,
			Usage: "time between two ticks",
		},
		&cli.DurationFlag{
			Name:  "settle",
			Value: time.Minute,
			Usage: "how long to wait for the last loads",
		},
		&cli.StringFlag{
			Name:  "metrics",
			Usage: "address to serve loader metrics on while scrolling",
		},
	}
	flags = append(flags, loaderFlags()...)
	flags = append(flags, sourceFlags()...)
	return &cli.Command{
		Name:      "scroll",
		Usage:     "simulate scrolling through a list and report what was loaded",
		ArgsUsage: "SOURCE",
		Action:    scroll,
		Flags:     flags,
	}
}
