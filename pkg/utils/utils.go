// pkg/utils/utils.go

package utils

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// NewProgress creates a progress container that renders only when stdout is a terminal.
func NewProgress(quiet bool) *mpb.Progress {
	if !quiet && isatty.IsTerminal(os.Stdout.Fd()) {
		return mpb.New(mpb.WithWidth(64))
	}
	return mpb.New(mpb.WithWidth(64), mpb.WithOutput(nil))
}

// NewDynProgressBar init a dynamic progress bar,the title will appears at the head of the progress bar
func NewDynProgressBar(title string, quiet bool) (*mpb.Progress, *mpb.Bar) {
	progress := NewProgress(quiet)
	return progress, AddCountersBar(progress, title, 0)
}

// AddCountersBar appends a `done / total` bar to an existing progress.
func AddCountersBar(progress *mpb.Progress, title string, total int64) *mpb.Bar {
	return progress.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(title, decor.WCSyncWidth),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
		),
	)
}
