package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"videolens/internal/logging"
	"videolens/internal/services"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultPollMaxWait  = 15 * time.Minute
)

// Poller waits for uploaded assets to become ACTIVE.
type Poller struct {
	fetcher     AssetFetcher
	interval    time.Duration
	maxInterval time.Duration
	multiplier  float64
	maxWait     time.Duration
	sleep       func(context.Context, time.Duration) error
	now         func() time.Time
	progress    func(Asset, time.Duration)
	logger      *slog.Logger
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithInterval sets the delay before the first re-check of a processing asset.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithBackoff multiplies the delay after every re-check, capped at maxInterval.
// A multiplier of 1 keeps the interval fixed.
func WithBackoff(multiplier float64, maxInterval time.Duration) PollerOption {
	return func(p *Poller) {
		if multiplier >= 1 {
			p.multiplier = multiplier
		}
		p.maxInterval = maxInterval
	}
}

// WithMaxWait bounds the total time spent waiting across all assets. Zero
// waits forever.
func WithMaxWait(maxWait time.Duration) PollerOption {
	return func(p *Poller) {
		if maxWait >= 0 {
			p.maxWait = maxWait
		}
	}
}

// WithSleeper overrides how waits are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) PollerOption {
	return func(p *Poller) {
		if sleeper != nil {
			p.sleep = sleeper
		}
	}
}

// WithClock overrides the time source used for the max-wait budget.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

// WithProgress registers a callback invoked before every wait.
func WithProgress(fn func(asset Asset, delay time.Duration)) PollerOption {
	return func(p *Poller) {
		p.progress = fn
	}
}

// WithPollerLogger sets the logger used for wait diagnostics.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller builds a poller reading asset state from fetcher.
func NewPoller(fetcher AssetFetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:    fetcher,
		interval:   defaultPollInterval,
		multiplier: 1,
		maxWait:    defaultPollMaxWait,
		sleep:      sleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxInterval < p.interval {
		p.maxInterval = p.interval
	}
	p.logger = logging.NewComponentLogger(p.logger, "poller")
	return p
}

// WaitActive checks each asset in order, waiting while it is PROCESSING. It
// returns the refreshed assets once all are ACTIVE. The first asset that ends in
// any other state stops the wait with a *ProcessingFailedError; assets after it
// are not checked.
func (p *Poller) WaitActive(ctx context.Context, assets []Asset) ([]Asset, error) {
	logger := logging.WithContext(ctx, p.logger)
	start := p.now()
	ready := make([]Asset, 0, len(assets))

	for _, asset := range assets {
		current, err := p.fetch(ctx, asset.Name)
		if err != nil {
			return nil, err
		}
		delay := p.interval
		for current.State == StateProcessing {
			waited := p.now().Sub(start)
			if p.maxWait > 0 && waited >= p.maxWait {
				return nil, &TimeoutError{Asset: current, Waited: waited}
			}
			if p.maxWait > 0 && waited+delay > p.maxWait {
				delay = p.maxWait - waited
			}
			if p.progress != nil {
				p.progress(current, delay)
			}
			logger.Debug("asset still processing",
				logging.String("asset", current.Name),
				logging.Duration("delay", delay),
				logging.Duration("waited", waited),
			)
			if err := p.sleep(ctx, delay); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return nil, &TimeoutError{Asset: current, Waited: p.now().Sub(start)}
				}
				return nil, err
			}
			delay = p.nextDelay(delay)
			if current, err = p.fetch(ctx, asset.Name); err != nil {
				return nil, err
			}
		}
		if current.State != StateActive {
			logger.Warn("asset processing failed",
				logging.String("asset", current.Name),
				logging.String("state", string(current.State)),
				logging.String(logging.FieldErrorKind, "processing_failed"),
			)
			return nil, &ProcessingFailedError{Asset: current}
		}
		ready = append(ready, withUploadMetadata(current, asset))
	}

	logger.Debug("all assets active", logging.Int("count", len(ready)), logging.Duration("waited", p.now().Sub(start)))
	return ready, nil
}

// withUploadMetadata fills fields a state lookup may omit from the asset
// returned by the upload.
func withUploadMetadata(current, uploaded Asset) Asset {
	if current.DisplayName == "" {
		current.DisplayName = uploaded.DisplayName
	}
	if current.SizeBytes == 0 {
		current.SizeBytes = uploaded.SizeBytes
	}
	return current
}

func (p *Poller) fetch(ctx context.Context, name string) (Asset, error) {
	asset, err := p.fetcher.GetAsset(ctx, name)
	if err != nil {
		return Asset{}, ensureMarked(err, services.ErrUpload, "poll", "get state of "+name)
	}
	return asset, nil
}

func (p *Poller) nextDelay(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * p.multiplier)
	if next > p.maxInterval {
		next = p.maxInterval
	}
	if next <= 0 {
		next = p.interval
	}
	return next
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
