// cmd/serve.go

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"runtime"
	"syscall"
	"time"

	"AveList/pkg/dataset"
	"AveList/pkg/metrics"
	"AveList/pkg/server"
	"AveList/pkg/version"

	"github.com/juicedata/godaemon"
	"github.com/urfave/cli/v2"
)

// healthURL turns a listen address into the health endpoint of the local server.
func healthURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen + "/health"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/health"
}

func checkServing(listen string) {
	url := healthURL(listen)
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 20; i++ {
		time.Sleep(time.Millisecond * 500)
		req, _ := http.NewRequest(http.MethodGet, url, nil)
		req.Header.Set("User-Agent", version.UserAgent())
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				logger.Infof("\033[92mOK\033[0m, server is ready at %s", listen)
				return
			}
		}
		os.Stdout.WriteString(".")
		os.Stdout.Sync()
	}
	os.Stdout.WriteString("\n")
	logger.Fatalf("server is not ready after 10 seconds, please run it in foreground")
}

func makeDaemon(c *cli.Context, listen string) error {
	var attrs godaemon.DaemonAttr
	attrs.OnExit = func(stage int) error {
		if stage != 0 {
			return nil
		}
		checkServing(listen)
		return nil
	}
	if godaemon.Stage() == 0 {
		var err error
		logfile := c.String("log")
		attrs.Stdout, err = os.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Errorf("open log file %s: %s", logfile, err)
		}
	}
	_, _, err := godaemon.MakeDaemon(&attrs)
	return err
}

func serve(c *cli.Context) error {
	setLoggerLevel(c)
	uri := c.String("dataset")
	if c.Args().Len() > 0 {
		uri = c.Args().Get(0)
	}
	listen := c.String("listen")

	if c.Bool("d") {
		if err := makeDaemon(c, listen); err != nil {
			logger.Fatalf("make daemon: %s", err)
		}
	}

	ds := dataset.NewClient(uri, &dataset.Config{
		Retries: 10,
		Count:   c.Int("count"),
		Seed:    c.Int64("seed"),
	})
	defer ds.Close()

	conf := &server.Config{
		Listen:      listen,
		DelayMin:    c.Duration("delay-min"),
		DelayMax:    c.Duration("delay-max"),
		Compress:    c.Bool("compress"),
		SlowRequest: c.Duration("slow-request"),
		Production:  c.Bool("production"),
	}
	if !c.Bool("no-metrics") {
		reg := metrics.NewRegistry()
		conf.Metrics = metrics.Handler(reg)
		conf.Observer = metrics.NewServerMetrics(reg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.New(ds, conf).ListenAndServe(ctx)
}

func serveFlags() *cli.Command {
	var defaultLogDir = "/var/log"
	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Fatalf("%v", err)
			return nil
		}
		defaultLogDir = path.Join(homeDir, ".avelist")
	}
	return &cli.Command{
		Name:      "serve",
		Usage:     "run the mock list backend",
		ArgsUsage: "[DATASET-URL]",
		Action:    serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Value: ":3001",
				Usage: "address to listen on",
			},
			&cli.StringFlag{
				Name:  "dataset",
				Value: "mem://",
				Usage: "dataset to serve (mem://COUNT or redis://HOST:PORT/DB)",
			},
			&cli.IntFlag{
				Name:  "count",
				Value: dataset.DefaultCount,
				Usage: "number of generated items for mem:// datasets",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 1,
				Usage: "seed of the generated columns",
			},
			&cli.DurationFlag{
				Name:  "delay-min",
				Value: 300 * time.Millisecond,
				Usage: "lower bound of the simulated latency",
			},
			&cli.DurationFlag{
				Name:  "delay-max",
				Value: 800 * time.Millisecond,
				Usage: "upper bound of the simulated latency",
			},
			&cli.BoolFlag{
				Name:  "compress",
				Usage: "compress responses with zstd or lz4 when the client accepts it",
			},
			&cli.DurationFlag{
				Name:  "slow-request",
				Value: 10 * time.Second,
				Usage: "log requests slower than this at info level",
			},
			&cli.BoolFlag{
				Name:  "production",
				Usage: "hide stack traces in error responses",
			},
			&cli.BoolFlag{
				Name:  "no-metrics",
				Usage: "do not serve /metrics",
			},
			&cli.BoolFlag{
				Name:    "d",
				Aliases: []string{"background"},
				Usage:   "run in background",
			},
			&cli.StringFlag{
				Name:  "log",
				Value: path.Join(defaultLogDir, "avelist.log"),
				Usage: "path of log file when running in background",
			},
		},
	}
}
