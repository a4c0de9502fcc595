package task

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type Runner interface {
	Run() error
}

type TickerTask struct {
	interval       time.Duration
	runner         Runner
	skipInitialRun bool
	clock          clock.Clock
	done           chan struct{}
	stopOnce       sync.Once
}

type Options struct {
	Interval       time.Duration
	Runner         Runner
	SkipInitialRun bool
	// Clock drives the ticker. Defaults to the wall clock.
	Clock clock.Clock
}

func NewTickerTaskWithOptions(opt Options) *TickerTask {
	c := opt.Clock
	if c == nil {
		c = clock.New()
	}
	return &TickerTask{
		interval:       opt.Interval,
		runner:         opt.Runner,
		skipInitialRun: opt.SkipInitialRun,
		clock:          c,
		done:           make(chan struct{}),
	}
}

// Start runs the task immediately and then schedules the task to run periodically
// if a positive fetching interval has been specified.
func (t *TickerTask) Start() {
	if !t.skipInitialRun {
		t.runner.Run()
	}

	if t.interval > 0 {
		ticker := t.clock.Ticker(t.interval)
		go t.runRecurring(ticker)
	}
}

// Stop stops the periodic task but the task runner maintains state. Calling Stop more
// than once is a no-op.
func (t *TickerTask) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

// runRecurring consumes a ticker that ticks at the specified interval. On each tick,
// the task is executed
func (t *TickerTask) runRecurring(ticker *clock.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.runner.Run()
		case <-t.done:
			return
		}
	}
}
