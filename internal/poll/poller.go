// Package poll runs named background jobs on a fixed interval with context
// cancellation.
package poll

import (
	"context"
	"log/slog"
	"time"
)

// Func is one polling iteration. Errors are logged, not fatal: a failed
// iteration must never stop the loop.
type Func func(ctx context.Context) error

// Poller repeatedly invokes a Func on a ticker until its context ends.
type Poller struct {
	name     string
	interval time.Duration
	fn       Func
	logger   *slog.Logger
}

// New creates a poller. The name tags every log line the loop emits.
func New(name string, interval time.Duration, fn Func, logger *slog.Logger) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger.With(slog.String("poller", name)),
	}
}

// Run executes one iteration immediately, then one per interval, until ctx is
// cancelled. It always returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", slog.Duration("interval", p.interval))

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := p.fn(ctx); err != nil {
		p.logger.Error("poll iteration failed",
			slog.String("error", err.Error()),
			slog.Duration("took", time.Since(start)),
		)
		return
	}
	p.logger.Debug("poll iteration done", slog.Duration("took", time.Since(start)))
}
