package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"videolens/internal/analysis"
)

const spinnerTick = 150 * time.Millisecond

// waitIndicator animates a spinner on a terminal while an analysis runs and
// describes which asset is still processing. It is silent on other writers.
type waitIndicator struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	done chan struct{}
	once sync.Once
}

func newWaitIndicator(w io.Writer, description string) *waitIndicator {
	if !isTerminal(w) {
		return &waitIndicator{}
	}
	return startWaitIndicator(w, description)
}

func startWaitIndicator(w io.Writer, description string) *waitIndicator {
	ind := &waitIndicator{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription(description),
			progressbar.OptionClearOnFinish(),
		),
		done: make(chan struct{}),
	}
	go ind.spin()
	return ind
}

func (w *waitIndicator) spin() {
	ticker := time.NewTicker(spinnerTick)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			_ = w.bar.Add(1)
			w.mu.Unlock()
		}
	}
}

// update is an analysis.Poller progress callback.
func (w *waitIndicator) update(asset analysis.Asset, delay time.Duration) {
	if w == nil || w.bar == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bar.Describe(fmt.Sprintf("waiting for %s to process (next check in %s)", asset.Label(), delay.Round(time.Second)))
}

func (w *waitIndicator) finish() {
	if w == nil || w.bar == nil {
		return
	}
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		_ = w.bar.Finish()
	})
}
