package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultAsyncTimeout = 20 * time.Second

// Async delivers through Notifier on a background goroutine so a slow
// remote notifier never holds up the caller. Each delivery runs detached
// from the caller's cancellation but is bounded by Timeout.
type Async struct {
	Notifier Notifier
	Timeout  time.Duration
	Logger   *slog.Logger

	wg sync.WaitGroup
}

func NewAsync(n Notifier, timeout time.Duration, logger *slog.Logger) *Async {
	return &Async{Notifier: n, Timeout: timeout, Logger: logger}
}

// Notify schedules delivery and returns at once. Delivery errors are logged.
func (a *Async) Notify(ctx context.Context, n Notice) error {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultAsyncTimeout
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := a.Notifier.Notify(dctx, n); err != nil {
			logger := a.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("async notify failed", "title", n.Title, "err", err)
		}
	}()
	return nil
}

// Wait blocks until pending deliveries finish or ctx ends.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
