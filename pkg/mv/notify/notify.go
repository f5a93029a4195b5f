// Package notify carries user-visible notices from the windowing controller
// to whatever surface the host provides: a log, a terminal banner, or a chat.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a single user-facing message.
type Notice struct {
	Title   string
	Message string
	Level   Level
	Time    time.Time
}

const (
	FailureTitle   = "Failed to load data"
	FailureMessage = "Unable to fetch margin ratio data. Please try again later."
)

// LoadFailure is the notice raised once per failed load.
func LoadFailure() Notice {
	return Notice{Title: FailureTitle, Message: FailureMessage, Level: LevelError, Time: time.Now()}
}

// Notifier delivers notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notice) error

func (f Func) Notify(ctx context.Context, n Notice) error { return f(ctx, n) }

// Log writes notices through slog at a level matching the notice.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, n Notice) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lvl := slog.LevelInfo
	switch n.Level {
	case LevelWarn:
		lvl = slog.LevelWarn
	case LevelError:
		lvl = slog.LevelError
	}
	logger.Log(ctx, lvl, n.Title, "message", n.Message)
	return nil
}

// ErrFull is returned by Channel when the buffer has no room.
var ErrFull = errors.New("notice channel full")

// Channel hands notices to a consumer loop without blocking the sender.
type Channel struct {
	ch chan Notice
}

func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{ch: make(chan Notice, size)}
}

// C is the receive side, drained by the terminal UI.
func (c *Channel) C() <-chan Notice { return c.ch }

func (c *Channel) Notify(_ context.Context, n Notice) error {
	select {
	case c.ch <- n:
		return nil
	default:
		return ErrFull
	}
}

// Multi fans a notice out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) error {
	var errs []error
	for _, nt := range m {
		if nt == nil {
			continue
		}
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every notice it receives. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}
