package batch

import (
	"context"
	"sync"
	"time"

	"github.com/gyeh/claimengine/internal/model"
)

// Evaluator runs one encounter through the decision pipeline.
type Evaluator interface {
	ProcessEncounter(ctx context.Context, in *model.EncounterInput, doc model.DocumentationQuality) *model.ProcessResult
}

// Outcome is the result for one input line. Exactly one of Result and Error
// is set.
type Outcome struct {
	Line   int                  `json:"line"`
	Result *model.ProcessResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`

	unreadable bool
}

// Pool evaluates items concurrently with at most Workers runs in flight.
type Pool struct {
	Workers  int
	Timeout  time.Duration
	Engine   Evaluator
	Progress Tracker
}

// Run processes all items and returns outcomes in input order.
func (p *Pool) Run(ctx context.Context, items []Item) []Outcome {
	outcomes := make([]Outcome, len(items))
	progress := p.Progress
	if progress == nil {
		progress = NoopTracker{}
	}
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, item := range items {
		if item.Err != nil {
			outcomes[i] = Outcome{Line: item.Line, Error: item.Err.Error(), unreadable: true}
			progress.Increment()
			continue
		}

		wg.Add(1)
		go func(idx int, it Item) {
			defer wg.Done()
			defer progress.Increment()

			// Acquire semaphore
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[idx] = Outcome{Line: it.Line, Error: ctx.Err().Error()}
				return
			}
			defer func() { <-sem }()

			runCtx := ctx
			if p.Timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, p.Timeout)
				defer cancel()
			}
			res := p.Engine.ProcessEncounter(runCtx, &it.Request.Encounter, it.Request.Documentation)
			outcomes[idx] = Outcome{Line: it.Line, Result: res}
		}(i, item)
	}

	wg.Wait()
	return outcomes
}

// Summarize counts outcomes. ManualReview overlaps Succeeded and Failed.
func Summarize(outcomes []Outcome, dur time.Duration) model.BatchSummary {
	s := model.BatchSummary{Encounters: len(outcomes), Duration: dur}
	for _, o := range outcomes {
		switch {
		case o.unreadable:
			s.Unreadable++
		case o.Result == nil:
			s.Skipped++
		case o.Result.Success:
			s.Succeeded++
		default:
			s.Failed++
		}
		if o.Result != nil && o.Result.RequiresManualReview {
			s.ManualReview++
		}
	}
	return s
}
