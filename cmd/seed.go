// cmd/seed.go

package main

import (
	"context"
	"regexp"
	"time"

	"AveList/pkg/dataset"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,61}[a-z0-9]$`)

func seed(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		logger.Fatalf("Dataset URL and name are required")
	}
	ds := dataset.NewClient(c.Args().Get(0), &dataset.Config{Retries: 2})
	defer ds.Close()
	seeder, ok := ds.(dataset.Seeder)
	if !ok {
		logger.Fatalf("%s datasets are generated on start and cannot be seeded", ds.Name())
	}

	if c.Args().Len() < 2 {
		logger.Fatalf("Please give it a name")
	}
	name := c.Args().Get(1)
	if !validName.MatchString(name) {
		logger.Fatalf("invalid name: %s, only alphabet, number and - are allowed, and the length should be 3 to 63 characters.", name)
	}
	count := c.Int("count")
	if count <= 0 {
		logger.Fatalf("invalid count: %d", count)
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if c.Bool("no-update") {
		if _, err := seeder.Load(ctx); err == nil {
			return nil
		}
	}

	format := dataset.Format{
		Name:    name,
		UUID:    uuid.New().String(),
		Count:   count,
		Seed:    c.Int64("seed"),
		Created: time.Now().UnixMilli(),
	}
	if format.Seed == 0 {
		format.Seed = time.Now().UnixNano()
	}
	start := time.Now()
	if err := seeder.Init(ctx, format, c.Bool("force")); err != nil {
		logger.Fatalf("seed: %s", err)
	}
	logger.Infof("Dataset is seeded as %+v in %s", format, time.Since(start).Round(time.Millisecond))
	return nil
}

func seedFlags() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "store a generated dataset",
		ArgsUsage: "DATASET-URL NAME",
		Action:    seed,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Value: dataset.DefaultCount,
				Usage: "number of items",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "seed of the generated columns, 0 for a random one",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite existing dataset",
			},
			&cli.BoolFlag{
				Name:  "no-update",
				Usage: "don't update existing dataset",
			},
		},
	}
}
