package batch

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Tracker reports batch progress. Increment is called once per item from
// worker goroutines.
type Tracker interface {
	Increment()
	Done()
}

// MPBTracker renders a single progress bar on stderr.
type MPBTracker struct {
	container *mpb.Progress
	bar       *mpb.Bar
}

func NewMPBTracker(total int) *MPBTracker {
	p := mpb.New(mpb.WithWidth(60), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("encounters ", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
		),
	)
	return &MPBTracker{container: p, bar: bar}
}

func (t *MPBTracker) Increment() {
	t.bar.Increment()
}

func (t *MPBTracker) Done() {
	t.bar.SetTotal(-1, true)
	t.container.Wait()
}

// LogTracker logs a line every Every items, for non-TTY runs.
type LogTracker struct {
	Log   zerolog.Logger
	Total int
	Every int64

	done atomic.Int64
}

func (t *LogTracker) Increment() {
	n := t.done.Add(1)
	every := t.Every
	if every <= 0 {
		every = 100
	}
	if n%every == 0 {
		t.Log.Info().Int64("done", n).Int("total", t.Total).Msg("batch progress")
	}
}

func (t *LogTracker) Done() {
	t.Log.Info().Int64("done", t.done.Load()).Int("total", t.Total).Msg("batch complete")
}

// NoopTracker discards progress.
type NoopTracker struct{}

func (NoopTracker) Increment() {}
func (NoopTracker) Done()      {}
