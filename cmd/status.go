// cmd/status.go

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"AveList/pkg/source"
	"AveList/pkg/version"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

type sections struct {
	Health map[string]interface{}
	Index  map[string]interface{}
	Total  int
}

func printJson(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	fmt.Println(string(output))
}

func getJson(ctx context.Context, client *http.Client, url string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", url)
	}
	var m map[string]interface{}
	if err = json.Unmarshal(body, &m); err != nil {
		return nil, errors.Wrapf(err, "decode %s (status %d)", url, resp.StatusCode)
	}
	return m, nil
}

func status(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		return fmt.Errorf("SERVER-URL is needed")
	}
	base := strings.TrimSuffix(c.Args().Get(0), "/")
	timeout := c.Duration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client := &http.Client{Timeout: timeout}

	health, err := getJson(ctx, client, base+"/health")
	if err != nil {
		logger.Fatalf("health: %s", err)
	}
	index, err := getJson(ctx, client, base+"/api")
	if err != nil {
		logger.Fatalf("index: %s", err)
	}
	src, err := source.NewHTTP(base, source.Options{Timeout: timeout, Client: client})
	if err != nil {
		logger.Fatalf("source: %s", err)
	}
	total, err := src.Total(ctx)
	if err != nil {
		logger.Fatalf("count: %s", err)
	}
	printJson(&sections{health, index, total})
	return nil
}

func statusFlags() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "show health and size of a list backend",
		ArgsUsage: "SERVER-URL",
		Action:    status,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "timeout of each request",
			},
		},
	}
}
