package tui

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Refresher fires a callback on a cron schedule (six fields, with seconds).
type Refresher struct {
	Cron *cron.Cron
	log  *slog.Logger
}

func NewRefresher(spec string, fire func(), log *slog.Logger) (*Refresher, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Refresher{Cron: cron.New(cron.WithSeconds()), log: log}
	if _, err := r.Cron.AddFunc(spec, func() {
		log.Debug("scheduled refresh")
		fire()
	}); err != nil {
		return nil, fmt.Errorf("register refresh %q: %w", spec, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.Cron.Start()
	r.log.Info("refresh scheduler started")
}

// Stop halts the scheduler and waits for a running callback to return.
func (r *Refresher) Stop() {
	<-r.Cron.Stop().Done()
	r.log.Info("refresh scheduler stopped")
}
